package models

import (
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
)

type Barber struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:100;not null" json:"name"`
	Phone string `gorm:"size:20" json:"phone"`

	LunchStart *timeofday.TimeOfDay `gorm:"type:integer" json:"lunch_start"`
	LunchEnd   *timeofday.TimeOfDay `gorm:"type:integer" json:"lunch_end"`

	PhotoURL string `gorm:"size:255" json:"photo_url"`
	IsActive bool   `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasLunch reports a usable lunch window. A half-filled or inverted window
// blocks nothing.
func (b *Barber) HasLunch() bool {
	return b != nil &&
		b.LunchStart != nil &&
		b.LunchEnd != nil &&
		*b.LunchStart < *b.LunchEnd
}
