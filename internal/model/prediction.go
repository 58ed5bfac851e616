package model

import "time"

// PredictionRequest is the flat feature request the prediction endpoints
// accept. BookedTime arrives as an arbitrary JSON value because the front
// end historically sent both numbers and numeric strings; coercion happens
// in the feature builder.
type PredictionRequest struct {
	Date        time.Time   `json:"date" binding:"required"`
	Service     string      `json:"service" binding:"required,specialty"`
	ORSuite     string      `json:"or_suite"`
	BookedTime  interface{} `json:"booked_time" binding:"required"`
	Complexity  *int        `json:"complexity" binding:"omitempty,min=1,max=3"`
	PatientName *string     `json:"patient_name"`
	DoctorName  *string     `json:"doctor_name"`
}

// BaselineRequest asks for a historical-average estimate, optionally
// refined through the current model.
type BaselineRequest struct {
	Service string     `json:"service" binding:"required,specialty"`
	Date    *time.Time `json:"date"`
}

const (
	PredictionSourceModel    = "AI Model"
	PredictionSourceBaseline = "Historical Avg"
)

type PredictionResponse struct {
	PredictedDuration float64 `json:"predicted_duration"`
	CaseID            *int64  `json:"case_id,omitempty"`
	Source            string  `json:"source,omitempty"`
}

type TrainingResult struct {
	TrainedRows int       `json:"trained_rows"`
	TrainedAt   time.Time `json:"trained_at"`
}
