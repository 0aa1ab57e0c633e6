package selection

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/paddock/internal/domain/model"
)

func TestMachineTransitions(t *testing.T) {
	Convey("Given a fresh machine", t, func() {
		m := NewMachine()

		Convey("Then it starts unfiltered", func() {
			So(m.Current().State.Kind, ShouldEqual, Unfiltered)
			So(m.Current().State.Filtered(), ShouldBeFalse)
		})

		Convey("When a team is selected after a driver", func() {
			m.SelectDriver(&model.SelectableOption{Value: 1, Label: "Lewis Hamilton"})
			tag := m.SelectTeam(&model.SelectableOption{Value: 131, Label: "Mercedes"})

			Convey("Then the driver selection is gone", func() {
				_, hasDriver := tag.State.DriverID()
				id, hasTeam := tag.State.TeamID()
				So(hasDriver, ShouldBeFalse)
				So(hasTeam, ShouldBeTrue)
				So(id, ShouldEqual, 131)
				So(tag.State.Label, ShouldEqual, "Mercedes")
			})
		})

		Convey("When a driver is selected after a team", func() {
			m.SelectTeam(&model.SelectableOption{Value: 6, Label: "Ferrari"})
			tag := m.SelectDriver(&model.SelectableOption{Value: 4, Label: "Fernando Alonso"})

			Convey("Then the team selection is gone", func() {
				_, hasTeam := tag.State.TeamID()
				So(hasTeam, ShouldBeFalse)
				So(tag.State.String(), ShouldEqual, "driver:4")
			})
		})

		Convey("When a nil or zero option is selected", func() {
			m.SelectDriver(&model.SelectableOption{Value: 4})
			cleared := m.SelectDriver(nil)
			zero := m.SelectTeam(&model.SelectableOption{})

			Convey("Then the filter is cleared", func() {
				So(cleared.State.Kind, ShouldEqual, Unfiltered)
				So(zero.State.Kind, ShouldEqual, Unfiltered)
				So(zero.State.String(), ShouldEqual, "unfiltered")
			})
		})
	})
}

func TestMachineTags(t *testing.T) {
	Convey("Given a machine filtered by driver 1", t, func() {
		m := NewMachine()
		first := m.SelectDriver(&model.SelectableOption{Value: 1})

		Convey("When reading the current tag repeatedly, as a timer would", func() {
			a, b := m.Current(), m.Current()

			Convey("Then the epoch does not move and the tags stay current", func() {
				So(a, ShouldResemble, first)
				So(b, ShouldResemble, first)
				So(m.IsCurrent(a), ShouldBeTrue)
			})
		})

		Convey("When the state moves to driver 2", func() {
			second := m.SelectDriver(&model.SelectableOption{Value: 2})

			Convey("Then the driver 1 tag is stale", func() {
				So(m.IsCurrent(first), ShouldBeFalse)
				So(m.IsCurrent(second), ShouldBeTrue)
			})
		})

		Convey("When driver 1 is selected again", func() {
			again := m.SelectDriver(&model.SelectableOption{Value: 1})

			Convey("Then the new tag differs from the old one", func() {
				So(again.Epoch, ShouldBeGreaterThan, first.Epoch)
				So(m.IsCurrent(first), ShouldBeFalse)
				So(again.String(), ShouldEqual, "driver:1@2")
			})
		})
	})
}
