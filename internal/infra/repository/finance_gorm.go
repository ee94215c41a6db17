package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/usecase/finance"
)

type FinanceGormRepository struct {
	db *gorm.DB
}

func NewFinanceGormRepository(db *gorm.DB) *FinanceGormRepository {
	return &FinanceGormRepository{db: db}
}

func (r *FinanceGormRepository) PaymentsBetween(
	ctx context.Context,
	start time.Time,
	end time.Time,
) ([]models.Payment, error) {

	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("paid_on >= ? AND paid_on < ?", start, end).
		Order("paid_on DESC").
		Order("id DESC").
		Find(&payments).Error; err != nil {
		return nil, mapDBError(err)
	}
	return payments, nil
}

func (r *FinanceGormRepository) CompletedBetween(
	ctx context.Context,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Barber").
		Preload("Payment").
		Where(
			"status = ? AND appointment_date >= ? AND appointment_date < ?",
			string(domain.StatusCompleted), start, end,
		).
		Order("appointment_date ASC").
		Find(&apps).Error; err != nil {
		return nil, mapDBError(err)
	}
	return apps, nil
}

func (r *FinanceGormRepository) ExpensesTotal(
	ctx context.Context,
	start time.Time,
	end time.Time,
) (float64, error) {

	var total float64
	if err := r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("expense_date >= ? AND expense_date < ?", start, end).
		Scan(&total).Error; err != nil {
		return 0, mapDBError(err)
	}
	return total, nil
}

func (r *FinanceGormRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	return mapDBError(r.db.WithContext(ctx).Create(p).Error)
}

var _ finance.Repository = (*FinanceGormRepository)(nil)
