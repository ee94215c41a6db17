// Package settings holds per-operator preferences: theme colours and the
// live alert sound. They are read on demand and written on change.
package settings

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

const (
	DefaultObsidian    = "#020617"
	DefaultBone        = "#f8fafc"
	DefaultAmberChrome = "#f59e0b"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func Defaults(userID uint) models.OperatorSettings {
	return models.OperatorSettings{
		UserID:           userID,
		ThemeObsidian:    DefaultObsidian,
		ThemeBone:        DefaultBone,
		ThemeAmberChrome: DefaultAmberChrome,
		SoundEnabled:     true,
	}
}

type Store interface {
	Find(ctx context.Context, userID uint) (*models.OperatorSettings, error)
	Save(ctx context.Context, s *models.OperatorSettings) error
}

// Patch carries only the fields being changed.
type Patch struct {
	ThemeObsidian    *string `json:"theme_obsidian"`
	ThemeBone        *string `json:"theme_bone"`
	ThemeAmberChrome *string `json:"theme_amber_chrome"`
	SoundEnabled     *bool   `json:"sound_enabled"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the stored settings or the defaults for a first-time operator.
func (s *Service) Get(ctx context.Context) (*models.OperatorSettings, error) {
	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id.UserID)
}

func (s *Service) load(ctx context.Context, userID uint) (*models.OperatorSettings, error) {
	cur, err := s.store.Find(ctx, userID)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			d := Defaults(userID)
			return &d, nil
		}
		return nil, err
	}
	return cur, nil
}

func (s *Service) Update(ctx context.Context, p Patch) (*models.OperatorSettings, error) {
	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := s.load(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	for _, c := range []struct {
		in  *string
		dst *string
	}{
		{p.ThemeObsidian, &cur.ThemeObsidian},
		{p.ThemeBone, &cur.ThemeBone},
		{p.ThemeAmberChrome, &cur.ThemeAmberChrome},
	} {
		if c.in == nil {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(*c.in))
		if !hexColor.MatchString(v) {
			return nil, httperr.ErrValidation("invalid_color")
		}
		*c.dst = v
	}
	if p.SoundEnabled != nil {
		cur.SoundEnabled = *p.SoundEnabled
	}

	if err := s.store.Save(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// Reset restores the defaults.
func (s *Service) Reset(ctx context.Context) (*models.OperatorSettings, error) {
	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	d := Defaults(id.UserID)
	if err := s.store.Save(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ======================================================
// GORM
// ======================================================

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) Find(ctx context.Context, userID uint) (*models.OperatorSettings, error) {
	var s models.OperatorSettings
	if err := g.db.WithContext(ctx).First(&s, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("settings_not_found")
		}
		return nil, err
	}
	return &s, nil
}

func (g *GormStore) Save(ctx context.Context, s *models.OperatorSettings) error {
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"theme_obsidian", "theme_bone", "theme_amber_chrome", "sound_enabled", "updated_at"}),
		}).
		Create(s).Error
}
