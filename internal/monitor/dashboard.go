package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-alloy/internal/analysis"
	"github.com/mind-engage/mindengage-alloy/internal/process"
)

const (
	dashboardSamples  = 10
	dashboardActivity = 5
)

type Activity struct {
	Time        time.Time `json:"time"`
	Furnace     string    `json:"furnace"`
	Temperature float64   `json:"temperature"`
	Quality     float64   `json:"quality"`
}

type Dashboard struct {
	ProductionEfficiency float64    `json:"production_efficiency"`
	ActiveAlerts         int        `json:"active_alerts"`
	LowStockItems        int        `json:"low_stock_items"`
	FurnacesOnline       int        `json:"furnaces_online"`
	RecentActivity       []Activity `json:"recent_activity"`
}

func qualityOrDefault(p process.ProcessData) float64 {
	if p.QualityScore != nil {
		return *p.QualityScore
	}
	return analysis.DefaultScore
}

// Dashboard summarizes the last day of production.
func (s *Service) Dashboard(ctx context.Context, lowStockThreshold float64) (Dashboard, error) {
	since := s.now().Add(-DefaultHours * time.Hour)
	recent, err := s.store.ListProcessData(ctx, process.ProcessListOpts{Since: since, Limit: dashboardSamples})
	if err != nil {
		return Dashboard{}, fmt.Errorf("recent process data: %w", err)
	}
	window, err := s.store.FetchRecentSamples(ctx, DefaultHours, "")
	if err != nil {
		return Dashboard{}, fmt.Errorf("furnace window: %w", err)
	}
	active, err := s.store.CountActiveAlerts(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("active alerts: %w", err)
	}
	low, err := s.store.FetchLowStock(ctx, lowStockThreshold)
	if err != nil {
		return Dashboard{}, fmt.Errorf("low stock: %w", err)
	}

	eff := analysis.DefaultScore
	if len(recent) > 0 {
		sum := 0.0
		for _, p := range recent {
			sum += qualityOrDefault(p)
		}
		eff = sum / float64(len(recent))
	}

	furnaces := map[string]struct{}{}
	for _, p := range window {
		furnaces[p.FurnaceID] = struct{}{}
	}

	activity := []Activity{}
	for i, p := range recent {
		if i == dashboardActivity {
			break
		}
		activity = append(activity, Activity{
			Time:        p.RecordedAt,
			Furnace:     p.FurnaceID,
			Temperature: p.Temperature,
			Quality:     qualityOrDefault(p),
		})
	}

	return Dashboard{
		ProductionEfficiency: round(eff, 1),
		ActiveAlerts:         active,
		LowStockItems:        len(low),
		FurnacesOnline:       len(furnaces),
		RecentActivity:       activity,
	}, nil
}
