package core

import (
	"math"
	"strconv"
	"time"
)

// AlertThresholdPercent is the fixed "near or over limit" cutoff. Alerts
// below it are omitted from CheckAlerts results.
const AlertThresholdPercent = 80

// AlertStatus is the evaluation result for one alert.
type AlertStatus struct {
	AlertID       int64     `json:"alertId"`
	Type          AlertType `json:"type"`
	Category      string    `json:"category,omitempty"`
	LimitAmount   float64   `json:"limitAmount"`
	CurrentAmount float64   `json:"currentAmount"`
	Percentage    int       `json:"percentage"`
}

// CheckAlerts compares spend since periodStart against each alert's limit
// and returns the alerts at or above the threshold. Category alerts measure
// the spend of their category; general alerts measure total spend. Alerts
// with a zero limit can never trigger and are excluded. Categories resolve
// alert category ids to the labels expenses carry.
func CheckAlerts(alerts []Alert, expenses []Expense, categories []Category, periodStart time.Time) []AlertStatus {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	byCategory := make(map[string]float64)
	var total float64
	for _, e := range expenses {
		t, err := ParseDate(e.Date)
		if err != nil || t.Before(periodStart) {
			continue
		}
		amount := CoerceAmount(e.Amount)
		byCategory[e.Category] += amount
		total += amount
	}

	statuses := []AlertStatus{}
	for _, a := range alerts {
		if a.LimitAmount <= 0 {
			continue
		}

		var current float64
		var label string
		if a.Type == AlertGeneral || a.CategoryID == nil {
			current = total
		} else {
			label = names[*a.CategoryID]
			if label == "" {
				// Stale reference; fall back to matching the raw id,
				// which older records used as the category field.
				label = strconv.FormatInt(*a.CategoryID, 10)
			}
			current = byCategory[label]
		}

		percentage := 100
		if current < a.LimitAmount {
			percentage = int(math.Round(current / a.LimitAmount * 100))
		}
		if percentage < AlertThresholdPercent {
			continue
		}

		statuses = append(statuses, AlertStatus{
			AlertID:       a.ID,
			Type:          a.Type,
			Category:      label,
			LimitAmount:   a.LimitAmount,
			CurrentAmount: current,
			Percentage:    percentage,
		})
	}
	return statuses
}

// PeriodStart returns the first instant of the calendar month containing t,
// the default evaluation window for alerts.
func PeriodStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
