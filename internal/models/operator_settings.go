package models

import "time"

type OperatorSettings struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`

	ThemeObsidian    string `gorm:"size:7;not null" json:"theme_obsidian"`
	ThemeBone        string `gorm:"size:7;not null" json:"theme_bone"`
	ThemeAmberChrome string `gorm:"size:7;not null" json:"theme_amber_chrome"`

	SoundEnabled bool `gorm:"not null" json:"sound_enabled"`

	UpdatedAt time.Time `json:"updated_at"`
}
