package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type UsageCounter struct {
	CredentialID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UsageDate    time.Time `gorm:"type:date;primaryKey;index"`
	Count        int       `gorm:"not null;default:0;check:count >= 0"`
}

func (UsageCounter) TableName() string {
	return "usage_counters"
}

// UsageSnapshot is the account's standing for the current UTC day.
type UsageSnapshot struct {
	Tier           PlanTier  `json:"plan_type"`
	DailyCeiling   int       `json:"daily_limit"`
	CurrentUsage   int       `json:"daily_usage"`
	Remaining      int       `json:"remaining_requests"`
	PercentageUsed float64   `json:"percentage_used"`
	ResetsAt       time.Time `json:"resets_at"`
}

// NewUsageSnapshot derives the remaining budget and percentage from usage
// against the ceiling on the given day.
func NewUsageSnapshot(tier PlanTier, ceiling, usage int, day time.Time) UsageSnapshot {
	remaining := ceiling - usage
	if remaining < 0 {
		remaining = 0
	}
	var pct float64
	if ceiling > 0 {
		pct = math.Round(float64(usage)/float64(ceiling)*10000) / 100
	}
	return UsageSnapshot{
		Tier:           tier,
		DailyCeiling:   ceiling,
		CurrentUsage:   usage,
		Remaining:      remaining,
		PercentageUsed: pct,
		ResetsAt:       UsageDay(day).AddDate(0, 0, 1),
	}
}

// UsageDay truncates t to its UTC calendar date.
func UsageDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type DailyUsage struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}
