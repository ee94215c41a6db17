package models

import "time"

type ExpenseCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:60;uniqueIndex;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
}

type Expense struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CategoryID *uint            `json:"category_id"`
	Category   *ExpenseCategory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`

	Description string    `gorm:"size:255;not null" json:"description"`
	Amount      float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	ExpenseDate time.Time `gorm:"type:date;not null;index" json:"expense_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
