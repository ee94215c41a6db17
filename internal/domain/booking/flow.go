package booking

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

type Step string

const (
	StepSelectService  Step = "select_service"
	StepSelectBarber   Step = "select_barber"
	StepSelectDateTime Step = "select_date_time"
	StepClientInfo     Step = "client_info"
	StepSubmitting     Step = "submitting"
	StepSuccess        Step = "success"
)

var stepOrder = map[Step]int{
	StepSelectService:  0,
	StepSelectBarber:   1,
	StepSelectDateTime: 2,
	StepClientInfo:     3,
	StepSubmitting:     4,
	StepSuccess:        5,
}

func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

// Editable steps are the four selection screens.
func (s Step) Editable() bool {
	return s.Valid() && stepOrder[s] <= stepOrder[StepClientInfo]
}

// FlowError is the last failure shown to the client.
type FlowError struct {
	Code      string       `json:"code"`
	Kind      httperr.Kind `json:"kind"`
	Retryable bool         `json:"retryable"`
}

// BusySlot is a slot the flow learned was taken at submit time.
type BusySlot struct {
	BarberID uint   `json:"barber_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// Flow is one self-service booking in progress. Selections survive back
// navigation and failed submits; only Restart clears them.
type Flow struct {
	ID   string `json:"id"`
	Step Step   `json:"step"`

	ServiceID uint   `json:"service_id,omitempty"`
	BarberID  uint   `json:"barber_id,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`

	ClientName  string `json:"client_name,omitempty"`
	ClientPhone string `json:"client_phone,omitempty"`
	Notes       string `json:"notes,omitempty"`

	BusySlots []BusySlot `json:"busy_slots,omitempty"`
	LastError *FlowError `json:"last_error,omitempty"`

	AppointmentID uint      `json:"appointment_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func New(id string, now time.Time) *Flow {
	return &Flow{ID: id, Step: StepSelectService, CreatedAt: now}
}

func (f *Flow) require(step Step) error {
	if f.Step != step {
		return httperr.ErrValidation("invalid_step")
	}
	return nil
}

// --------------------------------------------------
// Forward
// --------------------------------------------------

func (f *Flow) SelectService(serviceID uint) error {
	if err := f.require(StepSelectService); err != nil {
		return err
	}
	if serviceID == 0 {
		return httperr.ErrValidation("service_required")
	}
	// outra duração invalida o horário escolhido
	if f.ServiceID != serviceID {
		f.Time = ""
	}
	f.ServiceID = serviceID
	f.LastError = nil
	f.Step = StepSelectBarber
	return nil
}

func (f *Flow) SelectBarber(barberID uint) error {
	if err := f.require(StepSelectBarber); err != nil {
		return err
	}
	if barberID == 0 {
		return httperr.ErrValidation("barber_required")
	}
	if f.BarberID != barberID {
		f.Time = ""
	}
	f.BarberID = barberID
	f.LastError = nil
	f.Step = StepSelectDateTime
	return nil
}

func (f *Flow) SelectSlot(date, at string) error {
	if err := f.require(StepSelectDateTime); err != nil {
		return err
	}
	if date == "" || at == "" {
		return httperr.ErrValidation("slot_required")
	}
	d, err := timeofday.ParseDate(date)
	if err != nil {
		return httperr.ErrValidation("invalid_date_or_time")
	}
	t, err := timeofday.Parse(at)
	if err != nil {
		return httperr.ErrValidation("invalid_date_or_time")
	}

	date, at = timeofday.FormatDate(d), t.String()
	if f.IsMarkedBusy(f.BarberID, date, at) {
		return httperr.ErrConflict("time_conflict")
	}

	f.Date = date
	f.Time = at
	f.LastError = nil
	f.Step = StepClientInfo
	return nil
}

// SetClient stores the contact fields. Completeness is checked on submit so
// the client can fill them in any order.
func (f *Flow) SetClient(name, phone, notes string) error {
	if err := f.require(StepClientInfo); err != nil {
		return err
	}
	f.ClientName = strings.TrimSpace(name)
	f.ClientPhone = strings.TrimSpace(phone)
	f.Notes = strings.TrimSpace(notes)
	return nil
}

// --------------------------------------------------
// Backward
// --------------------------------------------------

// Back returns to any earlier editable step keeping every selection.
func (f *Flow) Back(to Step) error {
	if !f.Step.Editable() {
		return httperr.ErrValidation("invalid_step")
	}
	if !to.Editable() || stepOrder[to] >= stepOrder[f.Step] {
		return httperr.ErrValidation("invalid_target_step")
	}
	f.Step = to
	return nil
}

// Restart is the only way out of Success.
func (f *Flow) Restart(now time.Time) {
	*f = Flow{ID: f.ID, Step: StepSelectService, CreatedAt: now}
}

// --------------------------------------------------
// Submit
// --------------------------------------------------

func (f *Flow) BeginSubmit() error {
	if err := f.require(StepClientInfo); err != nil {
		return err
	}
	if f.ClientName == "" || f.ClientPhone == "" {
		return httperr.ErrValidation("client_info_required")
	}
	if f.ServiceID == 0 || f.BarberID == 0 || f.Date == "" || f.Time == "" {
		return httperr.ErrValidation("selection_incomplete")
	}
	f.LastError = nil
	f.Step = StepSubmitting
	return nil
}

func (f *Flow) Succeed(appointmentID uint) error {
	if err := f.require(StepSubmitting); err != nil {
		return err
	}
	f.AppointmentID = appointmentID
	f.LastError = nil
	f.Step = StepSuccess
	return nil
}

// Fail records a submit failure. A conflict sends the client back to the
// date/time step with the slot cleared and remembered as busy; anything else
// returns to client info with the selections intact.
func (f *Flow) Fail(err error) {
	if f.Step != StepSubmitting {
		return
	}

	fe := &FlowError{Code: "booking_failed", Kind: httperr.KindTransport}
	if be, ok := httperr.As(err); ok {
		fe.Code, fe.Kind = be.Code, be.Kind
	}
	// só falha de infraestrutura resolve tentando de novo
	fe.Retryable = fe.Kind == httperr.KindTransport
	f.LastError = fe

	if fe.Kind == httperr.KindConflict {
		f.markBusy(f.BarberID, f.Date, f.Time)
		f.Time = ""
		f.Step = StepSelectDateTime
		return
	}
	f.Step = StepClientInfo
}

// Interrupted recovers a flow left in Submitting by a request that never
// finished. Resubmitting is safe: a booking that did land conflicts.
func (f *Flow) Interrupted() {
	if f.Step != StepSubmitting {
		return
	}
	f.LastError = &FlowError{Code: "submit_interrupted", Kind: httperr.KindTransport, Retryable: true}
	f.Step = StepClientInfo
}

// --------------------------------------------------
// Busy slots
// --------------------------------------------------

func (f *Flow) markBusy(barberID uint, date, at string) {
	if at == "" || f.IsMarkedBusy(barberID, date, at) {
		return
	}
	f.BusySlots = append(f.BusySlots, BusySlot{BarberID: barberID, Date: date, Time: at})
}

func (f *Flow) IsMarkedBusy(barberID uint, date, at string) bool {
	for _, s := range f.BusySlots {
		if s.BarberID == barberID && s.Date == date && s.Time == at {
			return true
		}
	}
	return false
}
