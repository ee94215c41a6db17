package models

import "time"

const (
	PaymentPix        = "pix"
	PaymentCash       = "cash"
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
)

func IsPaymentMethod(m string) bool {
	switch m {
	case PaymentPix, PaymentCash, PaymentCreditCard, PaymentDebitCard:
		return true
	}
	return false
}

// Payment registra um recebimento. AppointmentID é nulo para vendas avulsas.
type Payment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID *uint `gorm:"uniqueIndex:idx_payments_appointment_id" json:"appointment_id"`

	Amount float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Method string    `gorm:"size:20;not null" json:"payment_method"`
	PaidOn time.Time `gorm:"type:date;not null;index" json:"paid_on"`
	Notes  string    `gorm:"size:255" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}
