package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// mapDBError turns driver failures into business errors. Business errors
// raised inside a transaction pass through untouched.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := httperr.As(err); ok {
		return err
	}

	switch {
	case httperr.IsExclusionConflict(err):
		return httperr.ErrConflict("time_conflict")
	case httperr.IsForeignKeyViolation(err):
		return httperr.ErrReferential("record_in_use", "deactivate")
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		httperr.IsConnectionError(err):
		return httperr.ErrTransport("db_unavailable", err)
	}
	return err
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (r *AppointmentGormRepository) GetBarber(
	ctx context.Context,
	id uint,
) (*models.Barber, error) {

	var b models.Barber
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("barber_not_found")
		}
		return nil, mapDBError(err)
	}
	return &b, nil
}

func (r *AppointmentGormRepository) GetService(
	ctx context.Context,
	id uint,
) (*models.Service, error) {

	var s models.Service
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("service_not_found")
		}
		return nil, mapDBError(err)
	}
	return &s, nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *AppointmentGormRepository) ListBlockingForBarberDate(
	ctx context.Context,
	barberID uint,
	date time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Select("id", "barber_id", "appointment_date", "start_minute", "end_minute", "status").
		Where(
			"barber_id = ? AND appointment_date = ? AND status <> ?",
			barberID, date, string(domain.StatusCancelled),
		).
		Order("start_minute ASC").
		Find(&apps).Error; err != nil {
		return nil, mapDBError(err)
	}

	return apps, nil
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

// ListForPeriod returns appointments with start <= date < end, cancelled
// included, ordered by date and start time.
func (r *AppointmentGormRepository) ListForPeriod(
	ctx context.Context,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Barber").
		Preload("Service").
		Where("appointment_date >= ? AND appointment_date < ?", start, end).
		Order("appointment_date ASC").
		Order("start_minute ASC").
		Order("id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, mapDBError(err)
	}

	return apps, nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentGormRepository) Book(
	ctx context.Context,
	req domain.BookRequest,
) (*models.Appointment, error) {

	var created models.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		// serializa reservas concorrentes do mesmo barbeiro
		var barber models.Barber
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&barber, req.BarberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.ErrNotFound("barber_not_found")
			}
			return err
		}
		if !barber.IsActive {
			return httperr.ErrValidation("barber_inactive")
		}

		client, err := upsertClient(tx, req.ClientName, req.ClientPhone)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.
			Model(&models.Appointment{}).
			Where(
				"barber_id = ? AND appointment_date = ? AND status <> ? AND start_minute < ? AND end_minute > ?",
				req.BarberID, req.Date, string(domain.StatusCancelled), req.End, req.Start,
			).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrConflict("time_conflict")
		}

		ap := models.Appointment{
			ClientID:  client.ID,
			BarberID:  req.BarberID,
			ServiceID: req.ServiceID,
			Date:      req.Date,
			StartTime: req.Start,
			EndTime:   req.End,
			Status:    string(domain.InitialStatus()),
			Notes:     req.Notes,
		}

		if err := tx.Omit(clause.Associations).Create(&ap).Error; err != nil {
			return err
		}

		ap.Client = *client
		ap.Barber = barber
		created = ap
		return nil
	})
	if err != nil {
		return nil, mapDBError(err)
	}

	return &created, nil
}

// upsertClient finds the client by phone or creates it. A concurrent insert
// of the same phone falls through to the lookup.
func upsertClient(tx *gorm.DB, name, phone string) (*models.Client, error) {
	client := models.Client{Name: name, Phone: phone}

	if err := tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoNothing: true,
		}).
		Create(&client).Error; err != nil {
		return nil, err
	}

	if client.ID == 0 {
		if err := tx.Where("phone = ?", phone).First(&client).Error; err != nil {
			return nil, err
		}
	}

	return &client, nil
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Barber").
		Preload("Service").
		Preload("Payment").
		First(&ap, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("appointment_not_found")
		}
		return nil, mapDBError(err)
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) Transition(
	ctx context.Context,
	id uint,
	fn domain.TransitionFunc,
) (*models.Appointment, error) {

	var ap models.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ap, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.ErrNotFound("appointment_not_found")
			}
			return err
		}

		if err := tx.First(&ap.Service, ap.ServiceID).Error; err != nil {
			return err
		}
		if err := tx.First(&ap.Client, ap.ClientID).Error; err != nil {
			return err
		}

		payment, err := fn(&ap)
		if err != nil {
			return err
		}

		if err := tx.
			Model(&ap).
			Select("status", "cancelled_at", "completed_at", "updated_at").
			Updates(&ap).Error; err != nil {
			return err
		}

		if payment != nil {
			if err := tx.Create(payment).Error; err != nil {
				if httperr.IsUniqueViolation(err, "idx_payments_appointment_id") {
					return httperr.ErrValidation("invalid_state")
				}
				return err
			}
			ap.Payment = payment
		}

		return nil
	})
	if err != nil {
		return nil, mapDBError(err)
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Appointment{}, id)
	if res.Error != nil {
		if httperr.IsForeignKeyViolation(res.Error) {
			return httperr.ErrReferential("appointment_has_payment", "cancel")
		}
		return mapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return httperr.ErrNotFound("appointment_not_found")
	}
	return nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
