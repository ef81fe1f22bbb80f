package application

import (
	"context"
	"fmt"
	"time"

	alarms "github.com/IsmaelPl01/netolight/internal/alarms/domain"
	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	dashboard "github.com/IsmaelPl01/netolight/internal/dashboard/domain"
)

// Overview is one dashboard refresh.
type Overview struct {
	Today     analytics.StateSummary
	Yesterday analytics.StateSummary
	LastWeek  analytics.StateSummary
	LastMonth analytics.StateSummary

	DailyThisMonth  []analytics.PointwiseSummary
	WeeklyThisMonth []analytics.PointwiseSummary
	MonthlyThisYear []analytics.PointwiseSummary

	Alarms alarms.SeveritySummary
}

// SavingsPercentToday applies the full-power baseline to today's figures.
func (o Overview) SavingsPercentToday() float64 {
	return dashboard.SavingsPercent(o.Today, dashboard.FullPowerBaselineWatts)
}

// Service assembles dashboard overviews from the rollup stores.
type Service struct {
	hourly  analytics.StageStore
	daily   analytics.StageStore
	weekly  analytics.StageStore
	monthly analytics.StageStore
	alarms  alarms.AlarmRepository
	loc     *time.Location
	now     func() time.Time
}

// NewService constructs a dashboard service.
func NewService(hourly, daily, weekly, monthly analytics.StageStore, alarmRepo alarms.AlarmRepository, loc *time.Location, opts ...ServiceOption) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		hourly:  hourly,
		daily:   daily,
		weekly:  weekly,
		monthly: monthly,
		alarms:  alarmRepo,
		loc:     loc,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Overview gathers every dashboard figure for the current instant.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.now()
	var o Overview
	var err error

	today := Today(now, s.loc)
	if o.Today, err = s.hourly.RangeSummary(ctx, today.From, today.To); err != nil {
		return Overview{}, fmt.Errorf("today summary: %w", err)
	}
	if o.Yesterday, err = s.daily.Summary(ctx, Yesterday(now, s.loc)); err != nil {
		return Overview{}, fmt.Errorf("yesterday summary: %w", err)
	}
	if o.LastWeek, err = s.weekly.Summary(ctx, LastWeek(now, s.loc)); err != nil {
		return Overview{}, fmt.Errorf("last week summary: %w", err)
	}
	if o.LastMonth, err = s.monthly.Summary(ctx, LastMonth(now, s.loc)); err != nil {
		return Overview{}, fmt.Errorf("last month summary: %w", err)
	}

	month := MonthToDate(now, s.loc)
	if o.DailyThisMonth, err = s.daily.PointwiseSummary(ctx, month.From, month.To); err != nil {
		return Overview{}, fmt.Errorf("daily series: %w", err)
	}
	if o.WeeklyThisMonth, err = s.weekly.PointwiseSummary(ctx, month.From, month.To); err != nil {
		return Overview{}, fmt.Errorf("weekly series: %w", err)
	}
	year := YearToDate(now, s.loc)
	if o.MonthlyThisYear, err = s.monthly.PointwiseSummary(ctx, year.From, year.To); err != nil {
		return Overview{}, fmt.Errorf("monthly series: %w", err)
	}

	if o.Alarms, err = s.alarms.Summary(ctx); err != nil {
		return Overview{}, fmt.Errorf("alarm summary: %w", err)
	}
	return o, nil
}
