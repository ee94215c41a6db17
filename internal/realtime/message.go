package realtime

import (
	"github.com/BruksfildServices01/barber-agenda/internal/changefeed"
	"github.com/BruksfildServices01/barber-agenda/internal/dto"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

// SSE event names.
const (
	MsgStatus         = "status"
	MsgAppointments   = "appointments"
	MsgAlert          = "alert"
	MsgAlertDismissed = "alert_dismissed"
	MsgChime          = "chime"
	MsgSound          = "sound"
	MsgNotice         = "notice"
)

type Message struct {
	Type string
	Data any
}

type StatusData struct {
	Status changefeed.Status `json:"status"`
}

type AppointmentsData struct {
	Date         string                   `json:"date"`
	Stale        bool                     `json:"stale"`
	Appointments []dto.AppointmentListDTO `json:"appointments"`
}

type Alert struct {
	Seq           uint64 `json:"seq"`
	AppointmentID uint   `json:"appointment_id"`
	ClientName    string `json:"client_name"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	Text          string `json:"text"`
}

type DismissedData struct {
	Seq uint64 `json:"seq"`
}

type SoundData struct {
	Enabled bool `json:"enabled"`
}

type NoticeData struct {
	Kind    httperr.Kind `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
}

// Snapshot is the session state as seen by a late reader.
type Snapshot struct {
	ID           string                   `json:"id"`
	Status       changefeed.Status        `json:"status"`
	Date         string                   `json:"date"`
	Stale        bool                     `json:"stale"`
	SoundEnabled bool                     `json:"sound_enabled"`
	Alert        *Alert                   `json:"alert,omitempty"`
	Appointments []dto.AppointmentListDTO `json:"appointments"`
}
