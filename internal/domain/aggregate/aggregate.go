// Package aggregate turns analytics rows into chart series and leaderboards.
//
// All functions are pure. Rows that cannot project to a complete
// model.Sample are skipped without error.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/okian/paddock/internal/domain/model"
)

// LeaderboardSize caps every leaderboard.
const LeaderboardSize = 5

// Row is any analytics row that can project to a sample.
type Row interface {
	Sample() (model.Sample, bool)
}

// Series is chart-ready data: Values[i] belongs to Labels[i].
type Series struct {
	Labels []int     `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Labels) }

// Entry is one leaderboard line. Year is set only for per-season entries.
type Entry struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Year  int     `json:"year,omitempty"`
	Value float64 `json:"value"`
}

// Samples keeps the complete projections of rows in input order.
func Samples[R Row](rows []R) []model.Sample {
	return lo.FilterMap(rows, func(r R, _ int) (model.Sample, bool) {
		return r.Sample()
	})
}

// GroupByYearAverage averages the metric per year, years ascending.
func GroupByYearAverage[R Row](rows []R) Series {
	return groupByYear(Samples(rows), func(group []model.Sample) float64 {
		return sumOf(group) / float64(len(group))
	})
}

// GroupByYearSum totals the metric per year, years ascending.
func GroupByYearSum[R Row](rows []R) Series {
	return groupByYear(Samples(rows), sumOf)
}

func groupByYear(samples []model.Sample, reduce func([]model.Sample) float64) Series {
	groups := lo.GroupBy(samples, func(s model.Sample) int { return s.Year })
	years := lo.Keys(groups)
	slices.Sort(years)

	out := Series{Labels: years, Values: make([]float64, 0, len(years))}
	for _, y := range years {
		out.Values = append(out.Values, reduce(groups[y]))
	}
	return out
}

// Direct plots a single entity's rows as they are, ordered by year ascending.
func Direct[R Row](rows []R) Series {
	samples := Samples(rows)
	slices.SortStableFunc(samples, func(a, b model.Sample) int { return cmp.Compare(a.Year, b.Year) })

	return Series{
		Labels: lo.Map(samples, func(s model.Sample, _ int) int { return s.Year }),
		Values: lo.Map(samples, func(s model.Sample, _ int) float64 { return s.Value }),
	}
}

// TopN sums the metric per entity and returns the LeaderboardSize largest
// totals, descending. Equal totals keep the order in which the entities
// first appear in rows.
func TopN[R Row](rows []R) []Entry {
	samples := Samples(rows)
	byID := lo.GroupBy(samples, func(s model.Sample) int { return s.ID })
	order := lo.Uniq(lo.Map(samples, func(s model.Sample, _ int) int { return s.ID }))

	entries := lo.Map(order, func(id int, _ int) Entry {
		group := byID[id]
		return Entry{ID: id, Name: group[0].Name, Value: sumOf(group)}
	})
	slices.SortStableFunc(entries, func(a, b Entry) int { return cmp.Compare(b.Value, a.Value) })
	return capped(entries)
}

// RecentN returns the LeaderboardSize most recent seasons, newest first.
func RecentN[R Row](rows []R) []Entry {
	entries := lo.Map(Samples(rows), func(s model.Sample, _ int) Entry {
		return Entry{ID: s.ID, Name: s.Name, Year: s.Year, Value: s.Value}
	})
	slices.SortStableFunc(entries, func(a, b Entry) int { return cmp.Compare(b.Year, a.Year) })
	return capped(entries)
}

func sumOf(group []model.Sample) float64 {
	return lo.SumBy(group, func(s model.Sample) float64 { return s.Value })
}

func capped(entries []Entry) []Entry {
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	return entries
}
