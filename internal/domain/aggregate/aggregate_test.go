package aggregate

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/paddock/internal/domain/model"
)

func ip(v int) *int         { return &v }
func fp(v float64) *float64 { return &v }

func driver(year, id int, name string, points float64) model.DriverRow {
	return model.DriverRow{Year: ip(year), DriverID: ip(id), DriverName: name, Points: fp(points)}
}

func team(year, id int, name string, points float64) model.TeamRow {
	return model.TeamRow{Year: ip(year), ConstructorID: ip(id), Name: name, Points: fp(points)}
}

func TestGroupByYear(t *testing.T) {
	Convey("Given driver rows across two seasons", t, func() {
		rows := []model.DriverRow{
			driver(2021, 1, "A", 10),
			driver(2021, 1, "A", 5),
			driver(2022, 1, "A", 20),
		}

		Convey("When averaged per year", func() {
			s := GroupByYearAverage(rows)

			Convey("Then 2021 averages 7.5 and 2022 is 20", func() {
				So(s.Labels, ShouldResemble, []int{2021, 2022})
				So(s.Values, ShouldResemble, []float64{7.5, 20})
			})
		})

		Convey("When summed per year", func() {
			s := GroupByYearSum(rows)

			Convey("Then each year holds its total", func() {
				So(s.Labels, ShouldResemble, []int{2021, 2022})
				So(s.Values, ShouldResemble, []float64{15, 20})
			})
		})
	})

	Convey("Given unordered rows with gaps and incomplete entries", t, func() {
		rows := []model.TeamRow{
			team(2023, 1, "Red Bull", 860),
			team(2019, 2, "Ferrari", 504),
			team(2023, 2, "Ferrari", 406),
			{Year: ip(2020), ConstructorID: ip(3), Name: "McLaren"},
			team(2021, 1, "Red Bull", 585.5),
		}

		s := GroupByYearSum(rows)

		Convey("Then there is one ascending label per distinct complete year", func() {
			So(s.Labels, ShouldResemble, []int{2019, 2021, 2023})
			So(s.Values, ShouldResemble, []float64{504, 585.5, 1266})
			So(s.Len(), ShouldEqual, 3)
		})
	})

	Convey("Given no rows", t, func() {
		s := GroupByYearAverage([]model.DriverRow{})

		Convey("Then the series is empty but not nil", func() {
			So(s.Labels, ShouldNotBeNil)
			So(s.Len(), ShouldEqual, 0)
		})
	})
}

func TestDirect(t *testing.T) {
	Convey("Given one driver's rows out of order", t, func() {
		rows := []model.DriverRow{
			driver(2022, 7, "X", 3),
			driver(2020, 7, "X", 1),
			{Year: ip(2019), DriverID: ip(7), DriverName: "X"},
			driver(2021, 7, "X", 2),
		}

		s := Direct(rows)

		Convey("Then the rows are plotted ascending by year without grouping", func() {
			So(s.Labels, ShouldResemble, []int{2020, 2021, 2022})
			So(s.Values, ShouldResemble, []float64{1, 2, 3})
		})
	})
}

func TestTopN(t *testing.T) {
	Convey("Given two entities A and B", t, func() {
		rows := []model.DriverRow{
			driver(2020, 1, "A", 30),
			driver(2020, 2, "B", 50),
		}

		Convey("Then the leaderboard is B:50, A:30", func() {
			So(TopN(rows), ShouldResemble, []Entry{
				{ID: 2, Name: "B", Value: 50},
				{ID: 1, Name: "A", Value: 30},
			})
		})
	})

	Convey("Given more than five entities across seasons", t, func() {
		var rows []model.DriverRow
		for id := 1; id <= 8; id++ {
			rows = append(rows, driver(2020, id, "D", float64(id)), driver(2021, id, "D", float64(id)))
		}

		top := TopN(rows)

		Convey("Then only five entries remain, sorted descending by total", func() {
			So(len(top), ShouldEqual, LeaderboardSize)
			So(top[0].ID, ShouldEqual, 8)
			So(top[0].Value, ShouldEqual, 16)
			for i := 1; i < len(top); i++ {
				So(top[i-1].Value, ShouldBeGreaterThanOrEqualTo, top[i].Value)
			}
		})
	})

	Convey("Given entities with equal totals", t, func() {
		rows := []model.DriverRow{
			driver(2020, 3, "C", 10),
			driver(2020, 1, "A", 10),
			driver(2020, 2, "B", 10),
		}

		Convey("Then ties keep first-seen order", func() {
			top := TopN(rows)
			So([]int{top[0].ID, top[1].ID, top[2].ID}, ShouldResemble, []int{3, 1, 2})
		})
	})
}

func TestRecentN(t *testing.T) {
	Convey("Given seven seasons of one team", t, func() {
		var rows []model.TeamRow
		for y := 2015; y <= 2021; y++ {
			rows = append(rows, team(y, 9, "Williams", float64(y-2000)))
		}

		recent := RecentN(rows)

		Convey("Then the five newest seasons are returned newest first", func() {
			So(len(recent), ShouldEqual, LeaderboardSize)
			So(recent[0], ShouldResemble, Entry{ID: 9, Name: "Williams", Year: 2021, Value: 21})
			So(recent[4].Year, ShouldEqual, 2017)
		})
	})
}
