package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithWriter(&buf)), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When logging with fields", func() {
			Named("relay").Info(context.Background(), "relayed",
				String("model", "gemma"),
				Int("status", 200),
				Bool("ok", true),
				Error(errors.New("boom")),
			)

			Convey("Then the record carries the fields, component and source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "relayed")
				So(rec["model"], ShouldEqual, "gemma")
				So(rec["component"], ShouldEqual, "relay")
				So(rec["ok"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given a text logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When the level is raised to error", func() {
			So(SetLevelString("ERROR"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Error(context.Background(), "shown")

			Convey("Then info records are dropped", func() {
				out := buf.String()
				So(strings.Contains(out, "hidden"), ShouldBeFalse)
				So(out, ShouldContainSubstring, "shown")
			})
		})

		Convey("When the level is unknown", func() {
			Convey("Then an error is returned", func() {
				So(SetLevelString("verbose"), ShouldNotBeNil)
			})
		})

		Convey("When the level is warning", func() {
			Convey("Then it is accepted", func() {
				So(SetLevelString("warning"), ShouldBeNil)
			})
		})
	})
}
