package model

// Period selects the calendar window for analytics queries.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodMonth, PeriodYear, PeriodAll:
		return true
	}
	return false
}

// AnalyticsRow is the projection the reporting layer aggregates over.
type AnalyticsRow struct {
	Service        string   `db:"service"`
	ORSuite        string   `db:"or_suite"`
	DoctorName     *string  `db:"doctor_name"`
	ActualDuration *float64 `db:"actual_duration"`
}

type AnalyticsReport struct {
	ServiceCounts map[string]int     `json:"service_counts"`
	ORSuiteCounts map[string]int     `json:"or_suite_counts"`
	DoctorCounts  map[string]int     `json:"doctor_counts"`
	AvgDuration   map[string]float64 `json:"avg_duration"`
}

type UtilizationTier string

const (
	UtilizationLow      UtilizationTier = "Low"
	UtilizationModerate UtilizationTier = "Moderate"
	UtilizationHigh     UtilizationTier = "High"
)

type StatusReport struct {
	TotalCases  int             `json:"total_cases"`
	AvgDuration float64         `json:"avg_duration"`
	Utilization UtilizationTier `json:"utilization"`
}
