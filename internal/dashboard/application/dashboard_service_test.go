package application_test

import (
	"context"
	"testing"
	"time"

	alarms "github.com/IsmaelPl01/netolight/internal/alarms/domain"
	alarmsmem "github.com/IsmaelPl01/netolight/internal/alarms/infrastructure/memory"
	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	"github.com/IsmaelPl01/netolight/internal/dashboard/application"
)

// stubStore records the ranges the dashboard asks for and hands back
// canned summaries.
type stubStore struct {
	summary analytics.StateSummary

	summaryBuckets []time.Time
	ranges         []application.Period
}

func (s *stubStore) AggregateWindow(ctx context.Context, devEUI string, t0, t1 time.Time) (int, error) {
	return 0, nil
}

func (s *stubStore) OldestSourceTime(ctx context.Context, devEUI string) (*time.Time, error) {
	return nil, nil
}

func (s *stubStore) Rows(ctx context.Context, devEUI string, from, to time.Time) ([]analytics.RollupRow, error) {
	return nil, nil
}

func (s *stubStore) Summary(ctx context.Context, bucket time.Time) (analytics.StateSummary, error) {
	s.summaryBuckets = append(s.summaryBuckets, bucket)
	return s.summary, nil
}

func (s *stubStore) RangeSummary(ctx context.Context, from, to time.Time) (analytics.StateSummary, error) {
	s.ranges = append(s.ranges, application.Period{From: from, To: to})
	return s.summary, nil
}

func (s *stubStore) PointwiseSummary(ctx context.Context, from, to time.Time) ([]analytics.PointwiseSummary, error) {
	s.ranges = append(s.ranges, application.Period{From: from, To: to})
	return []analytics.PointwiseSummary{{Bucket: from, StateSummary: s.summary}}, nil
}

func TestOverviewPeriods(t *testing.T) {
	ctx := context.Background()
	// Thursday 2024-03-14 10:30 UTC
	now := time.Date(2024, time.March, 14, 10, 30, 0, 0, time.UTC)

	hourly := &stubStore{summary: analytics.StateSummary{NDevices: 3, EnergyIn: 100}}
	daily := &stubStore{summary: analytics.StateSummary{NDevices: 3, EnergyIn: 200}}
	weekly := &stubStore{summary: analytics.StateSummary{NDevices: 3, EnergyIn: 300}}
	monthly := &stubStore{summary: analytics.StateSummary{NDevices: 3, EnergyIn: 400}}

	alarmRepo := alarmsmem.NewAlarmRepository()
	if _, err := alarmRepo.Insert(ctx, alarms.Alarm{Severity: alarms.SeverityCritical}); err != nil {
		t.Fatalf("insert alarm: %v", err)
	}
	if _, err := alarmRepo.Insert(ctx, alarms.Alarm{Severity: alarms.SeverityMinor, Cleared: true}); err != nil {
		t.Fatalf("insert alarm: %v", err)
	}

	svc := application.NewService(hourly, daily, weekly, monthly, alarmRepo, time.UTC,
		application.WithClock(func() time.Time { return now }))

	o, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if o.Today.EnergyIn != 100 || o.Yesterday.EnergyIn != 200 ||
		o.LastWeek.EnergyIn != 300 || o.LastMonth.EnergyIn != 400 {
		t.Fatalf("summaries routed wrong: %+v", o)
	}

	midnight := time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)
	if len(hourly.ranges) != 1 || !hourly.ranges[0].From.Equal(midnight) || !hourly.ranges[0].To.Equal(now) {
		t.Fatalf("today range = %+v", hourly.ranges)
	}
	if len(daily.summaryBuckets) != 1 || !daily.summaryBuckets[0].Equal(midnight.AddDate(0, 0, -1)) {
		t.Fatalf("yesterday bucket = %+v", daily.summaryBuckets)
	}
	// previous Monday-start week
	if len(weekly.summaryBuckets) != 1 ||
		!weekly.summaryBuckets[0].Equal(time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("last week bucket = %+v", weekly.summaryBuckets)
	}
	if len(monthly.summaryBuckets) != 1 ||
		!monthly.summaryBuckets[0].Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("last month bucket = %+v", monthly.summaryBuckets)
	}

	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if len(daily.ranges) != 1 || !daily.ranges[0].From.Equal(monthStart) {
		t.Fatalf("month-to-date daily range = %+v", daily.ranges)
	}
	yearStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if len(monthly.ranges) != 1 || !monthly.ranges[0].From.Equal(yearStart) {
		t.Fatalf("year-to-date monthly range = %+v", monthly.ranges)
	}

	if o.Alarms.Critical != 1 || o.Alarms.Minor != 0 {
		t.Fatalf("alarm summary = %+v", o.Alarms)
	}

	if len(o.DailyThisMonth) != 1 || len(o.MonthlyThisYear) != 1 {
		t.Fatalf("series lengths: daily=%d monthly=%d", len(o.DailyThisMonth), len(o.MonthlyThisYear))
	}
}
