package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"civicfix/internal/model"
)

// PaymentFilter narrows payment listings. Zero values mean "no filter".
type PaymentFilter struct {
	CustomerEmail string
	PaymentType   model.PaymentType
	Search        string
}

// PaymentRepository defines payment persistence operations.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]model.Payment, error)
	Latest(ctx context.Context, limit int) ([]model.Payment, error)
	TotalsByType(ctx context.Context, customerEmail string) (map[model.PaymentType]decimal.Decimal, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	FindBySessionForUpdateTx(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Payment, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment record.
func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindByID finds a payment by ID.
func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns finalized payments matching the filter, newest first.
func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]model.Payment, error) {
	q := r.db.WithContext(ctx).Where("status = ?", model.PaymentStatusPaid)
	if filter.CustomerEmail != "" {
		q = q.Where("customer_email = ?", filter.CustomerEmail)
	}
	if filter.PaymentType != "" {
		q = q.Where("payment_type = ?", filter.PaymentType)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("customer_email LIKE ? OR transaction_id LIKE ? OR issue_title LIKE ?", like, like, like)
	}
	var payments []model.Payment
	if err := q.Order("paid_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Latest returns the most recent finalized payments.
func (r *paymentRepository) Latest(ctx context.Context, limit int) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.WithContext(ctx).Where("status = ?", model.PaymentStatusPaid).
		Order("paid_at DESC").Limit(limit).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// TotalsByType sums finalized payment amounts grouped by type, optionally
// scoped to one customer.
func (r *paymentRepository) TotalsByType(ctx context.Context, customerEmail string) (map[model.PaymentType]decimal.Decimal, error) {
	type row struct {
		PaymentType model.PaymentType
		Total       decimal.Decimal
	}
	q := r.db.WithContext(ctx).Model(&model.Payment{}).Where("status = ?", model.PaymentStatusPaid)
	if customerEmail != "" {
		q = q.Where("customer_email = ?", customerEmail)
	}
	var rows []row
	if err := q.Select("payment_type, SUM(amount) as total").Group("payment_type").Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make(map[model.PaymentType]decimal.Decimal, len(rows))
	for _, r := range rows {
		totals[r.PaymentType] = r.Total
	}
	return totals, nil
}

// WithTransaction executes a function within a database transaction.
func (r *paymentRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// FindBySessionForUpdateTx finds a payment by session ID with a row-level
// lock within a transaction. The lock serializes duplicate confirmations.
func (r *paymentRepository) FindBySessionForUpdateTx(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Payment, error) {
	var payment model.Payment
	if err := tx.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateTx updates a payment within a transaction.
func (r *paymentRepository) UpdateTx(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Save(payment).Error
}
