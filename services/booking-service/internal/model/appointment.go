package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

var statusAliases = map[string]AppointmentStatus{
	"booked":     StatusBooked,
	"reservado":  StatusBooked,
	"completed":  StatusCompleted,
	"completado": StatusCompleted,
	"cancelled":  StatusCancelled,
	"cancelado":  StatusCancelled,
	"no-show":    StatusNoShow,
}

// ParseStatus accepts the English status names and their Spanish aliases.
func ParseStatus(s string) (AppointmentStatus, error) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

type Appointment struct {
	ID                string
	Date              time.Time
	Time              TimeOfDay
	ServiceID         string
	ClientName        string
	ClientPhone       string
	ClientID          string
	Status            AppointmentStatus
	CancellationToken string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AppointmentDetail is an appointment joined with its service for the admin views.
type AppointmentDetail struct {
	Appointment
	ServiceName     string
	ServiceCategory string
	ServicePrice    decimal.Decimal
}

type AdminUser struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
