// Package analytics derives windowed reports from a user's lookup
// history: a zero-filled daily trend, type and risk distributions, and
// period-over-period headline deltas. Reads only; it tolerates lookups
// committed concurrently with a report.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/threatscope/threatscope/internal/models"
	"github.com/threatscope/threatscope/internal/provider"
	"github.com/threatscope/threatscope/internal/score"
	"github.com/threatscope/threatscope/internal/store"
)

// TimeRange selects the lookback window for a report.
type TimeRange string

// Supported lookback windows.
const (
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	Range90d TimeRange = "90d"
)

// ParseTimeRange maps a raw parameter to a window, defaulting to 7d.
func ParseTimeRange(raw string) TimeRange {
	switch TimeRange(raw) {
	case Range30d:
		return Range30d
	case Range90d:
		return Range90d
	default:
		return Range7d
	}
}

// Days returns the window length in calendar days.
func (r TimeRange) Days() int {
	switch r {
	case Range30d:
		return 30
	case Range90d:
		return 90
	default:
		return 7
	}
}

// dayFormat labels trend buckets.
const dayFormat = "2006-01-02"

// typeLabels is the externally charted type breakdown. Email lookups are
// not part of this particular chart; they still count toward totals,
// averages, and the risk distribution.
var typeLabels = []string{
	string(provider.TypeIP),
	string(provider.TypeDomain),
	string(provider.TypeURL),
	string(provider.TypeHash),
}

// TrendSeries is a labeled daily count series.
type TrendSeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// TypeDistribution is a labeled count breakdown by indicator type.
type TypeDistribution struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// Report is the analytics payload for one user and window.
type Report struct {
	TotalThreats     int              `json:"totalThreats"`
	ThreatChange     int              `json:"threatChange"`
	AverageRiskScore int              `json:"averageRiskScore"`
	RiskChange       int              `json:"riskChange"`
	UniqueSources    int              `json:"uniqueSources"`
	SourcesChange    int              `json:"sourcesChange"`
	ThreatTrend      TrendSeries      `json:"threatTrend"`
	ThreatTypes      TypeDistribution `json:"threatTypes"`
	RiskDistribution [3]int           `json:"riskDistribution"`
}

// Aggregator computes reports from stored lookups.
type Aggregator struct {
	store store.LookupStore
	now   func() time.Time
}

// NewAggregator constructs an Aggregator.
func NewAggregator(lookupStore store.LookupStore) *Aggregator {
	return &Aggregator{store: lookupStore, now: time.Now}
}

// Aggregate builds the report for a user over the given window. The
// window covers the last Days() UTC calendar days inclusive and ends at
// the current instant; the comparison window is the equal-length span
// immediately before it.
func (a *Aggregator) Aggregate(ctx context.Context, userID uint64, timeRange TimeRange) (*Report, error) {
	now := a.now().UTC()
	days := timeRange.Days()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := todayStart.AddDate(0, 0, -(days - 1))

	current, errCurrent := a.store.ListByUserBetween(ctx, userID, windowStart, now)
	if errCurrent != nil {
		return nil, fmt.Errorf("analytics: current window: %w", errCurrent)
	}

	previousStart := windowStart.AddDate(0, 0, -days)
	previous, errPrevious := a.store.ListByUserBetween(ctx, userID, previousStart, windowStart.Add(-time.Nanosecond))
	if errPrevious != nil {
		return nil, fmt.Errorf("analytics: previous window: %w", errPrevious)
	}

	report := &Report{
		TotalThreats:     len(current),
		AverageRiskScore: averageScore(current),
		UniqueSources:    distinctTypes(current),
		ThreatTrend:      trendSeries(current, windowStart, days),
		ThreatTypes:      typeDistribution(current),
		RiskDistribution: riskDistribution(current),
	}
	report.ThreatChange = changePercent(len(previous), len(current))
	report.RiskChange = changePercent(averageScore(previous), report.AverageRiskScore)
	report.SourcesChange = changePercent(distinctTypes(previous), report.UniqueSources)
	return report, nil
}

// trendSeries buckets lookups per UTC calendar day, zero-filling days
// without activity.
func trendSeries(lookups []models.Lookup, windowStart time.Time, days int) TrendSeries {
	counts := make(map[string]int, len(lookups))
	for _, l := range lookups {
		counts[l.CreatedAt.UTC().Format(dayFormat)]++
	}

	series := TrendSeries{
		Labels: make([]string, 0, days),
		Data:   make([]int, 0, days),
	}
	for i := 0; i < days; i++ {
		label := windowStart.AddDate(0, 0, i).Format(dayFormat)
		series.Labels = append(series.Labels, label)
		series.Data = append(series.Data, counts[label])
	}
	return series
}

// typeDistribution counts lookups per charted indicator type.
func typeDistribution(lookups []models.Lookup) TypeDistribution {
	dist := TypeDistribution{
		Labels: append([]string(nil), typeLabels...),
		Data:   make([]int, len(typeLabels)),
	}
	for _, l := range lookups {
		for i, label := range dist.Labels {
			if l.QueryType == label {
				dist.Data[i]++
				break
			}
		}
	}
	return dist
}

// riskDistribution counts lookups per risk band: [Low, Medium, High].
func riskDistribution(lookups []models.Lookup) [3]int {
	var dist [3]int
	for _, l := range lookups {
		switch score.BandFor(l.Score) {
		case score.BandLow:
			dist[0]++
		case score.BandMedium:
			dist[1]++
		default:
			dist[2]++
		}
	}
	return dist
}

// averageScore is the rounded mean score, 0 for an empty period.
func averageScore(lookups []models.Lookup) int {
	if len(lookups) == 0 {
		return 0
	}
	sum := 0
	for _, l := range lookups {
		sum += l.Score
	}
	return int(math.Round(float64(sum) / float64(len(lookups))))
}

// distinctTypes counts the distinct query types in a period.
func distinctTypes(lookups []models.Lookup) int {
	seen := make(map[string]struct{}, len(provider.AllQueryTypes))
	for _, l := range lookups {
		seen[l.QueryType] = struct{}{}
	}
	return len(seen)
}

// changePercent is the period-over-period delta: 0 when both periods are
// zero, 100 when only the previous period is zero, otherwise the rounded
// percentage change. Applied uniformly to every headline metric.
func changePercent(previous, current int) int {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}
