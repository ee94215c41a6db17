package dto

import (
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

type AppointmentListDTO struct {
	ID     uint   `json:"id"`
	Date   string `json:"date"`
	Status string `json:"status"`

	StartTime timeofday.TimeOfDay `json:"start_time"`
	EndTime   timeofday.TimeOfDay `json:"end_time"`

	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`

	BarberID   uint   `json:"barber_id"`
	BarberName string `json:"barber_name"`

	ServiceID    uint    `json:"service_id"`
	ServiceName  string  `json:"service_name"`
	ServicePrice float64 `json:"service_price"`

	Notes string `json:"notes"`
}

func NewAppointment(ap models.Appointment) AppointmentListDTO {
	return AppointmentListDTO{
		ID:           ap.ID,
		Date:         timeofday.FormatDate(ap.Date),
		Status:       ap.Status,
		StartTime:    ap.StartTime,
		EndTime:      ap.EndTime,
		ClientName:   ap.Client.Name,
		ClientPhone:  ap.Client.Phone,
		BarberID:     ap.BarberID,
		BarberName:   ap.Barber.Name,
		ServiceID:    ap.ServiceID,
		ServiceName:  ap.Service.Name,
		ServicePrice: ap.Service.Price,
		Notes:        ap.Notes,
	}
}

func NewAppointmentList(apps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(apps))
	for _, ap := range apps {
		out = append(out, NewAppointment(ap))
	}
	return out
}
