package service_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/domain/model"
)

func TestForms_Podium(t *testing.T) {
	Convey("Given the podium form", t, func() {
		api := newFakeAPI()
		forms := service.NewForms(api, []int{2025, 2030}, 2030, nil)
		ctx := context.Background()

		Convey("When the constructor is missing", func() {
			_, err := forms.PredictPodium(ctx, 1, 0, 3)

			Convey("Then it is rejected before any call", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, service.MsgSelectBoth)
				So(api.Calls(), ShouldBeEmpty)
			})
		})

		Convey("When the grid is out of range", func() {
			_, err := forms.PredictPodium(ctx, 1, 9, 21)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, service.MsgGridRange)
		})

		Convey("When the request is complete", func() {
			res, err := forms.PredictPodium(ctx, 1, 9, 1)

			Convey("Then it is forwarded as given", func() {
				So(err, ShouldBeNil)
				So(api.lastPodium, ShouldResemble, model.PodiumRequest{DriverID: 1, ConstructorID: 9, Grid: 1})
				So(res.PodiumProbability, ShouldEqual, 0.8)
			})
		})

		Convey("When upstream fails", func() {
			api.failForms = true
			_, err := forms.PredictPodium(ctx, 1, 9, 1)

			Convey("Then the user sees the generic message", func() {
				var ue *service.UserError
				So(errors.As(err, &ue), ShouldBeTrue)
				So(ue.Message, ShouldEqual, service.MsgFormFailed)
				So(errors.Is(err, service.ErrValidation), ShouldBeFalse)
			})
		})
	})
}

func TestForms_WDC(t *testing.T) {
	Convey("Given the championship form", t, func() {
		api := newFakeAPI()
		forms := service.NewForms(api, nil, 2030, nil)
		ctx := context.Background()

		Convey("Then a missing driver or negative points are rejected", func() {
			_, err := forms.PredictWDC(ctx, 2024, 0, 100)
			So(err.Error(), ShouldEqual, service.MsgSelectDriver)
			_, err = forms.PredictWDC(ctx, 2024, 1, -1)
			So(err.Error(), ShouldEqual, service.MsgPointsNegative)
			_, err = forms.PredictWDC(ctx, 0, 1, 10)
			So(err.Error(), ShouldEqual, service.MsgYearRequired)
			So(api.Calls(), ShouldBeEmpty)
		})

		Convey("Then a valid request is forwarded", func() {
			res, err := forms.PredictWDC(ctx, 2024, 1, 250)
			So(err, ShouldBeNil)
			So(api.lastWDC, ShouldResemble, model.WDCRequest{Year: 2024, DriverID: 1, Points: 250})
			So(res.DriverName, ShouldEqual, "Lewis Hamilton")
		})
	})
}

func TestForms_Championships(t *testing.T) {
	Convey("Given championship forecasts with an unsorted list", t, func() {
		api := newFakeAPI()
		api.champs = model.ChampionshipPredictions{
			Drivers: model.ChampionshipGroup{Predictions: []model.ChampionshipEntry{
				{DriverID: 1, DriverName: "A", ChampionProbability: 0.2, PredictedChampion: true},
				{DriverID: 2, DriverName: "B", ChampionProbability: 1.4, PredictedChampion: true},
			}},
		}
		forms := service.NewForms(api, []int{2025, 2030}, 2030, nil)
		ctx := context.Background()

		Convey("When the default year is requested", func() {
			p, err := forms.Championships(ctx, 0)

			Convey("Then the forecast is normalised", func() {
				So(err, ShouldBeNil)
				So(p.Year, ShouldEqual, 2030)
				So(p.Drivers.Top.DriverName, ShouldEqual, "B")
				So(p.Drivers.Top.ChampionProbability, ShouldEqual, 1)
				So(p.Drivers.Predictions[1].PredictedChampion, ShouldBeFalse)
				So(p.Constructors.Top, ShouldBeNil)
			})
		})

		Convey("When a year outside the list is requested", func() {
			_, err := forms.Championships(ctx, 1999)
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			So(api.Calls(), ShouldBeEmpty)
		})

		Convey("When upstream fails", func() {
			api.failForms = true
			_, err := forms.Championships(ctx, 2025)
			var ue *service.UserError
			So(errors.As(err, &ue), ShouldBeTrue)
			So(ue.Message, ShouldEqual, "Failed to load 2025 predictions")
		})
	})

	Convey("Given a list of seasons", t, func() {
		forms := service.NewForms(newFakeAPI(), nil, 2030, nil)

		Convey("Then they are returned newest first", func() {
			seasons, err := forms.Seasons(context.Background())
			So(err, ShouldBeNil)
			So(seasons, ShouldResemble, []int{2024, 2023, 2022})
		})
	})
}
