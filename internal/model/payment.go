package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentType distinguishes the two paid flows.
type PaymentType string

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeBoostIssue   PaymentType = "boost_issue"
)

// PaymentStatus is the gateway-side state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Payment represents a checkout session and, once confirmed, the durable
// payment record. A finalized payment is immutable.
type Payment struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	PaymentType PaymentType     `json:"paymentType" gorm:"type:varchar(20);not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Currency    string          `json:"currency" gorm:"size:10;not null;default:'BDT'"`
	// SessionID is the checkout session handed to the gateway. Confirmation
	// is idempotent per session: the unique index plus a row lock guarantee
	// a replayed webhook cannot double-apply the side effect.
	SessionID     string        `json:"sessionId" gorm:"uniqueIndex;size:64;not null"`
	TransactionID string        `json:"transactionId" gorm:"size:64;index"`
	Status        PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt        *time.Time    `json:"paidAt"`
	CustomerEmail string        `json:"customerEmail" gorm:"size:255;not null;index"`
	CustomerName  string        `json:"customerName" gorm:"size:255"`
	// IssueID is required iff PaymentType is boost_issue.
	IssueID    *uuid.UUID     `json:"issueId" gorm:"type:char(36);index"`
	IssueTitle string         `json:"issueTitle" gorm:"size:255"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// Finalized reports whether the gateway has confirmed this payment.
func (p *Payment) Finalized() bool {
	return p.Status == PaymentStatusPaid
}

// BeforeCreate sets UUID before creating the record.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
