package model

import (
	"time"
)

// SurgeryCase is one scheduled or completed procedure. Rows created by a
// prediction request carry IsPrediction=true and store the estimate in
// ActualDuration until real wheels-in/out times replace it.
type SurgeryCase struct {
	ID             int64      `db:"id" json:"id"`
	Date           time.Time  `db:"date" json:"date"`
	ORSuite        string     `db:"or_suite" json:"or_suite"`
	Service        string     `db:"service" json:"service"`
	BookedTime     float64    `db:"booked_time" json:"booked_time"`
	WheelsIn       *time.Time `db:"wheels_in" json:"wheels_in,omitempty"`
	WheelsOut      *time.Time `db:"wheels_out" json:"wheels_out,omitempty"`
	ActualDuration *float64   `db:"actual_duration" json:"actual_duration,omitempty"`
	PatientName    *string    `db:"patient_name" json:"patient_name,omitempty"`
	DoctorName     *string    `db:"doctor_name" json:"doctor_name,omitempty"`
	Complexity     *int       `db:"complexity" json:"complexity,omitempty"`
	IsPrediction   bool       `db:"is_prediction" json:"is_prediction"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type CreateCaseRequest struct {
	Date        time.Time  `json:"date" binding:"required"`
	ORSuite     string     `json:"or_suite" binding:"required"`
	Service     string     `json:"service" binding:"required,specialty"`
	BookedTime  float64    `json:"booked_time" binding:"required,gt=0"`
	WheelsIn    *time.Time `json:"wheels_in"`
	WheelsOut   *time.Time `json:"wheels_out"`
	PatientName *string    `json:"patient_name"`
	DoctorName  *string    `json:"doctor_name"`
	Complexity  *int       `json:"complexity" binding:"omitempty,min=1,max=3"`
}

type UpdateCaseRequest struct {
	Service     *string    `json:"service" binding:"omitempty,specialty"`
	ORSuite     *string    `json:"or_suite"`
	BookedTime  *float64   `json:"booked_time" binding:"omitempty,gt=0"`
	WheelsIn    *time.Time `json:"wheels_in"`
	WheelsOut   *time.Time `json:"wheels_out"`
	PatientName *string    `json:"patient_name"`
	DoctorName  *string    `json:"doctor_name"`
	Complexity  *int       `json:"complexity" binding:"omitempty,min=1,max=3"`
}

// CalendarEvent is the shape the dashboard calendar consumes.
type CalendarEvent struct {
	ID    int64         `json:"id"`
	Title string        `json:"title"`
	Start time.Time     `json:"start"`
	End   *time.Time    `json:"end,omitempty"`
	Props CalendarProps `json:"extendedProps"`
}

type CalendarProps struct {
	ORSuite        string   `json:"or_suite"`
	Service        string   `json:"service"`
	BookedTime     float64  `json:"booked_time"`
	ActualDuration *float64 `json:"actual_duration,omitempty"`
	PatientName    *string  `json:"patient_name,omitempty"`
	DoctorName     *string  `json:"doctor_name,omitempty"`
	IsPrediction   bool     `json:"is_prediction"`
}

// ScheduleEntry is one row of the schedule-by-date view, sorted by wheels-in.
type ScheduleEntry struct {
	ORSuite        string   `json:"or_suite"`
	Service        string   `json:"service"`
	BookedTime     float64  `json:"booked_time"`
	ORSchedule     string   `json:"or_schedule"`
	ActualDuration *float64 `json:"actual_duration,omitempty"`
}
