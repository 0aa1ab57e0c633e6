package service_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/paddock/internal/adapters/llm"
	"github.com/okian/paddock/internal/adapters/predictapi"
	service "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/chat"
)

// slowPredictionAPI serves fixed JSON and holds driver 1's analytics until
// release is closed.
func slowPredictionAPI(t *testing.T) (url string, release func()) {
	t.Helper()
	gate := make(chan struct{})
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /drivers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"driverId":1,"name":"Lewis Hamilton"},{"driverId":2,"name":"Max Verstappen"}]`)
	})
	mux.HandleFunc("GET /constructors", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"constructorId":9,"name":"Red Bull"}]`)
	})
	mux.HandleFunc("GET /analytics/drivers", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("driverId") {
		case "1":
			<-gate
			_, _ = io.WriteString(w, `[{"year":2019,"driverId":1,"driver_name":"Lewis Hamilton","points":413}]`)
		case "2":
			_, _ = io.WriteString(w, `[{"year":2023,"driverId":2,"driver_name":"Max Verstappen","points":575}]`)
		default:
			_, _ = io.WriteString(w, `[{"year":2023,"driverId":2,"forename":"Max","surname":"Verstappen","points":575},`+
				`{"year":2023,"driverId":1,"forename":"Lewis","surname":"Hamilton","points":234}]`)
		}
	})
	mux.HandleFunc("GET /analytics/teams", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"year":2023,"constructorId":9,"name":"Red Bull","points":860}]`)
	})
	mux.HandleFunc("GET /analytics/podiums", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("GET /predict/driver/{id}/{year}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"driver_name":"driver `+r.PathValue("id")+`","predictions":{"points":300,"championship_probability":0.9}}`)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"service running"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(release)
	return srv.URL, release
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over a real client and a slow prediction API", t, func() {
		url, release := slowPredictionAPI(t)
		api, err := predictapi.NewClient(url)
		So(err, ShouldBeNil)

		completions := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer completions.Close()
		relay := chat.NewRelay(llm.NewClient(completions.URL))

		svc := service.New(api, relay,
			service.WithWorkerCount(3),
			service.WithRefreshInterval(time.Hour),
			service.WithNow(fixedNow),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		So(eventually(func() bool {
			v := svc.Dashboard(ctx)
			return len(v.Leaderboards.Drivers) == 2
		}), ShouldBeTrue)

		Convey("Then unfiltered drivers are ranked with composed names", func() {
			v := svc.Dashboard(ctx)
			So(v.Leaderboards.Drivers[0].Name, ShouldEqual, "Max Verstappen")
			So(v.Leaderboards.Drivers[1].Name, ShouldEqual, "Lewis Hamilton")
			So(svc.Ready(ctx), ShouldBeNil)
		})

		Convey("When driver 1's reply arrives after driver 2 was selected", func() {
			_, err := svc.SetFilter(ctx, service.Filter{DriverID: 1})
			So(err, ShouldBeNil)
			_, err = svc.SetFilter(ctx, service.Filter{DriverID: 2})
			So(err, ShouldBeNil)

			So(eventually(func() bool {
				v := svc.Dashboard(ctx)
				return v.DataFor.ID == 2 && v.Prediction != nil
			}), ShouldBeTrue)
			release()
			So(eventually(func() bool { return !svc.Dashboard(ctx).Loading.Analytics }), ShouldBeTrue)

			Convey("Then driver 2's data stays on screen", func() {
				v := svc.Dashboard(ctx)
				So(v.Filter.ID, ShouldEqual, 2)
				So(v.Charts.DriverPoints.Labels, ShouldResemble, []int{2023})
				So(v.Prediction.Name(), ShouldEqual, "driver 2")
			})
		})

		Convey("When the completion API fails", func() {
			transcript := chat.NewTranscript()
			reply, ok := transcript.Send(ctx, relay, "who won in 2008?")

			Convey("Then the widget shows the fallback apology", func() {
				So(ok, ShouldBeTrue)
				So(reply.Content, ShouldEqual, chat.FallbackReply)
				So(transcript.Len(), ShouldEqual, 2)
			})
		})
	})
}
