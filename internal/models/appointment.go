package models

import (
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"not null" json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"client"`

	BarberID uint   `gorm:"not null;index:idx_appointments_barber_date,priority:1" json:"barber_id"`
	Barber   Barber `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"barber"`

	ServiceID uint    `gorm:"not null" json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"service"`

	Date      time.Time           `gorm:"column:appointment_date;type:date;not null;index:idx_appointments_barber_date,priority:2" json:"date"`
	StartTime timeofday.TimeOfDay `gorm:"column:start_minute;type:integer;not null" json:"start_time"`
	EndTime   timeofday.TimeOfDay `gorm:"column:end_minute;type:integer;not null" json:"end_time"`

	Status string `gorm:"size:20;default:'scheduled';index" json:"status"`

	Notes       string     `gorm:"size:255" json:"notes"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Payment *Payment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"payment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
