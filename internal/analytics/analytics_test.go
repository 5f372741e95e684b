package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/threatscope/threatscope/internal/models"
	"github.com/threatscope/threatscope/internal/store"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupAnalyticsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:analytics_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Lookup{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func newTestAggregator(t *testing.T, conn *gorm.DB, now time.Time) *Aggregator {
	t.Helper()
	agg := NewAggregator(store.NewGormLookupStore(conn))
	agg.now = func() time.Time { return now }
	return agg
}

func seedLookup(t *testing.T, conn *gorm.DB, userID uint64, queryType string, scoreValue int, createdAt time.Time) {
	t.Helper()
	row := models.Lookup{
		ID:           uuid.NewString(),
		UserID:       userID,
		Query:        "seed",
		QueryType:    queryType,
		Score:        scoreValue,
		ProviderData: datatypes.JSON(`{}`),
		Summary:      "seed",
		CreatedAt:    createdAt,
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("seed lookup: %v", errCreate)
	}
}

func TestParseTimeRange(t *testing.T) {
	if ParseTimeRange("") != Range7d {
		t.Fatal("empty should default to 7d")
	}
	if ParseTimeRange("30d") != Range30d || ParseTimeRange("90d") != Range90d {
		t.Fatal("explicit ranges should parse")
	}
	if ParseTimeRange("365d") != Range7d {
		t.Fatal("unknown range should default to 7d")
	}
}

func TestTrendZeroFill(t *testing.T) {
	conn := setupAnalyticsDB(t)
	now := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

	// Lookups only on the first and last day of the 7-day window.
	seedLookup(t, conn, 1, "ip", 10, now.AddDate(0, 0, -6).Add(time.Hour))
	seedLookup(t, conn, 1, "ip", 10, now.Add(-time.Hour))

	agg := newTestAggregator(t, conn, now)
	report, errAggregate := agg.Aggregate(context.Background(), 1, Range7d)
	if errAggregate != nil {
		t.Fatalf("aggregate: %v", errAggregate)
	}

	if len(report.ThreatTrend.Labels) != 7 || len(report.ThreatTrend.Data) != 7 {
		t.Fatalf("expected 7 buckets, got %d labels / %d data", len(report.ThreatTrend.Labels), len(report.ThreatTrend.Data))
	}
	if report.ThreatTrend.Labels[0] != "2026-08-23" || report.ThreatTrend.Labels[6] != "2026-08-29" {
		t.Fatalf("unexpected labels: %v", report.ThreatTrend.Labels)
	}
	if report.ThreatTrend.Data[0] != 1 || report.ThreatTrend.Data[6] != 1 {
		t.Fatalf("expected counts on first and last day: %v", report.ThreatTrend.Data)
	}
	for i := 1; i <= 5; i++ {
		if report.ThreatTrend.Data[i] != 0 {
			t.Fatalf("expected zero-filled day %d: %v", i, report.ThreatTrend.Data)
		}
	}
}

func TestTypeDistributionExcludesEmail(t *testing.T) {
	conn := setupAnalyticsDB(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	seedLookup(t, conn, 1, "ip", 10, now.Add(-time.Hour))
	seedLookup(t, conn, 1, "ip", 10, now.Add(-2*time.Hour))
	seedLookup(t, conn, 1, "email", 10, now.Add(-3*time.Hour))
	seedLookup(t, conn, 1, "url", 10, now.Add(-4*time.Hour))

	agg := newTestAggregator(t, conn, now)
	report, errAggregate := agg.Aggregate(context.Background(), 1, Range7d)
	if errAggregate != nil {
		t.Fatalf("aggregate: %v", errAggregate)
	}

	wantLabels := []string{"ip", "domain", "url", "hash"}
	for i, label := range wantLabels {
		if report.ThreatTypes.Labels[i] != label {
			t.Fatalf("unexpected labels: %v", report.ThreatTypes.Labels)
		}
	}
	wantData := []int{2, 0, 1, 0}
	for i, want := range wantData {
		if report.ThreatTypes.Data[i] != want {
			t.Fatalf("expected data %v, got %v", wantData, report.ThreatTypes.Data)
		}
	}
	// Email still counts everywhere else.
	if report.TotalThreats != 4 {
		t.Fatalf("expected total 4 including email, got %d", report.TotalThreats)
	}
	if report.UniqueSources != 3 {
		t.Fatalf("expected 3 distinct types including email, got %d", report.UniqueSources)
	}
}

func TestRiskDistribution(t *testing.T) {
	conn := setupAnalyticsDB(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	seedLookup(t, conn, 1, "ip", 5, now.Add(-time.Hour))
	seedLookup(t, conn, 1, "ip", 29, now.Add(-time.Hour))
	seedLookup(t, conn, 1, "ip", 30, now.Add(-time.Hour))
	seedLookup(t, conn, 1, "ip", 69, now.Add(-time.Hour))
	seedLookup(t, conn, 1, "ip", 70, now.Add(-time.Hour))
	seedLookup(t, conn, 1, "ip", 100, now.Add(-time.Hour))

	agg := newTestAggregator(t, conn, now)
	report, errAggregate := agg.Aggregate(context.Background(), 1, Range7d)
	if errAggregate != nil {
		t.Fatalf("aggregate: %v", errAggregate)
	}
	if report.RiskDistribution != [3]int{2, 2, 2} {
		t.Fatalf("unexpected risk distribution: %v", report.RiskDistribution)
	}
}

func TestChangePercent(t *testing.T) {
	cases := []struct {
		previous, current, want int
	}{
		{0, 0, 0},
		{0, 5, 100},
		{10, 5, -50},
		{4, 6, 50},
		{3, 4, 33},
	}
	for _, tc := range cases {
		if got := changePercent(tc.previous, tc.current); got != tc.want {
			t.Fatalf("changePercent(%d, %d): expected %d, got %d", tc.previous, tc.current, tc.want, got)
		}
	}
}

func TestPeriodOverPeriodDeltas(t *testing.T) {
	conn := setupAnalyticsDB(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// Previous 7-day window: 10 lookups, average score 40, one type.
	previousDay := now.AddDate(0, 0, -9)
	for i := 0; i < 10; i++ {
		seedLookup(t, conn, 1, "ip", 40, previousDay.Add(time.Duration(i)*time.Minute))
	}
	// Current window: 5 lookups, average score 80, two types.
	for i := 0; i < 4; i++ {
		seedLookup(t, conn, 1, "domain", 80, now.Add(-time.Duration(i+1)*time.Hour))
	}
	seedLookup(t, conn, 1, "hash", 80, now.Add(-30*time.Minute))

	agg := newTestAggregator(t, conn, now)
	report, errAggregate := agg.Aggregate(context.Background(), 1, Range7d)
	if errAggregate != nil {
		t.Fatalf("aggregate: %v", errAggregate)
	}

	if report.TotalThreats != 5 {
		t.Fatalf("expected total 5, got %d", report.TotalThreats)
	}
	if report.ThreatChange != -50 {
		t.Fatalf("expected threat change -50, got %d", report.ThreatChange)
	}
	if report.AverageRiskScore != 80 {
		t.Fatalf("expected average 80, got %d", report.AverageRiskScore)
	}
	if report.RiskChange != 100 {
		t.Fatalf("expected risk change 100, got %d", report.RiskChange)
	}
	if report.UniqueSources != 2 || report.SourcesChange != 100 {
		t.Fatalf("expected sources 2 (+100%%), got %d (%d%%)", report.UniqueSources, report.SourcesChange)
	}
}

func TestEmptyPeriods(t *testing.T) {
	conn := setupAnalyticsDB(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	agg := newTestAggregator(t, conn, now)
	report, errAggregate := agg.Aggregate(context.Background(), 99, Range30d)
	if errAggregate != nil {
		t.Fatalf("aggregate: %v", errAggregate)
	}
	if report.TotalThreats != 0 || report.AverageRiskScore != 0 {
		t.Fatalf("expected zeros, got %+v", report)
	}
	if report.ThreatChange != 0 || report.RiskChange != 0 || report.SourcesChange != 0 {
		t.Fatalf("both-empty periods must yield zero changes: %+v", report)
	}
	if len(report.ThreatTrend.Labels) != 30 {
		t.Fatalf("expected 30 buckets, got %d", len(report.ThreatTrend.Labels))
	}
}
