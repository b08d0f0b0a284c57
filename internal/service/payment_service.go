package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"civicfix/internal/auth"
	"civicfix/internal/cache"
	"civicfix/internal/errors"
	"civicfix/internal/model"
	"civicfix/internal/repository"
)

// CheckoutInput is the validated payment payload. PaymentType is the tag;
// IssueID is required iff the type is boost_issue.
type CheckoutInput struct {
	PaymentType model.PaymentType
	IssueID     *uuid.UUID
}

// CheckoutSession is the pending payment plus the gateway redirect URL.
type CheckoutSession struct {
	Payment *model.Payment `json:"payment"`
	URL     string         `json:"url"`
}

// PaymentService gates the paid flows: subscription (premium unlock) and
// boost (priority escalation). Session creation validates the target before
// any money moves; confirmation is idempotent per session and applies the
// side effect atomically with finalizing the payment.
type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, actor auth.Identity, in CheckoutInput) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, sessionID, transactionID string) (*model.Payment, error)
	ListOwn(ctx context.Context, actor auth.Identity, filter repository.PaymentFilter) ([]model.Payment, error)
	ListAll(ctx context.Context, actor auth.Identity, filter repository.PaymentFilter) ([]model.Payment, error)
	GetInvoice(ctx context.Context, actor auth.Identity, paymentID uuid.UUID) (*model.Payment, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	issueRepo   repository.IssueRepository
	userRepo    repository.UserRepository
	access      *AccessMatrix
	cache       *cache.Client

	gatewayBaseURL     string
	subscriptionAmount decimal.Decimal
	boostAmount        decimal.Decimal
}

// NewPaymentService creates a new payment service. Amount strings come from
// configuration and must parse as decimals.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	issueRepo repository.IssueRepository,
	userRepo repository.UserRepository,
	access *AccessMatrix,
	cache *cache.Client,
	gatewayBaseURL, subscriptionAmount, boostAmount string,
) (PaymentService, error) {
	subAmount, err := decimal.NewFromString(subscriptionAmount)
	if err != nil {
		return nil, fmt.Errorf("parse subscription amount: %w", err)
	}
	bAmount, err := decimal.NewFromString(boostAmount)
	if err != nil {
		return nil, fmt.Errorf("parse boost amount: %w", err)
	}
	return &paymentService{
		paymentRepo:        paymentRepo,
		issueRepo:          issueRepo,
		userRepo:           userRepo,
		access:             access,
		cache:              cache,
		gatewayBaseURL:     gatewayBaseURL,
		subscriptionAmount: subAmount,
		boostAmount:        bAmount,
	}, nil
}

// boostable returns nil if issue can be boosted by actor.
func boostable(issue *model.Issue, actorEmail string) error {
	if issue.ReporterEmail != actorEmail {
		return fmt.Errorf("%w: not the reporter", errors.ErrInvalidBoostTarget)
	}
	if issue.IsBoosted {
		return fmt.Errorf("%w: already boosted", errors.ErrInvalidBoostTarget)
	}
	if issue.Status.Terminal() {
		return fmt.Errorf("%w: issue is %s", errors.ErrInvalidBoostTarget, issue.Status)
	}
	return nil
}

// CreateCheckoutSession validates the payload and records a pending payment
// with a fresh session ID. The gateway hosts the actual checkout; the
// engine only hands the caller the redirect URL.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, actor auth.Identity, in CheckoutInput) (*CheckoutSession, error) {
	payment := &model.Payment{
		PaymentType:   in.PaymentType,
		Currency:      "BDT",
		SessionID:     "cs_" + uuid.NewString(),
		Status:        model.PaymentStatusPending,
		CustomerEmail: actor.Email,
		CustomerName:  actor.DisplayName,
	}

	switch in.PaymentType {
	case model.PaymentTypeSubscription:
		if actor.Role != model.RoleCitizen {
			return nil, errors.ErrForbidden
		}
		if actor.IsPremium {
			return nil, fmt.Errorf("%w: account is already premium", errors.ErrInvalidPayment)
		}
		payment.Amount = s.subscriptionAmount

	case model.PaymentTypeBoostIssue:
		if in.IssueID == nil {
			return nil, fmt.Errorf("%w: boost_issue requires issueId", errors.ErrInvalidPayment)
		}
		issue, err := s.issueRepo.FindByID(ctx, *in.IssueID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if err := s.access.Authorize(actor, OpBoostIssue, issue); err != nil {
			return nil, err
		}
		if err := boostable(issue, actor.Email); err != nil {
			return nil, err
		}
		payment.Amount = s.boostAmount
		payment.IssueID = in.IssueID
		payment.IssueTitle = issue.Title

	default:
		return nil, fmt.Errorf("%w: unknown payment type %q", errors.ErrInvalidPayment, in.PaymentType)
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, mapStoreErr(err)
	}

	return &CheckoutSession{
		Payment: payment,
		URL:     fmt.Sprintf("%s/pay?session_id=%s", s.gatewayBaseURL, payment.SessionID),
	}, nil
}

// ConfirmPayment finalizes a checkout session and applies its side effect
// in one transaction. Confirmation is safe under at-least-once delivery: a
// replay finds the finalized row under lock and returns it unchanged.
func (s *paymentService) ConfirmPayment(ctx context.Context, sessionID, transactionID string) (*model.Payment, error) {
	var payment *model.Payment
	err := withRetry(ctx, func() error {
		return s.paymentRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			var err error
			payment, err = s.paymentRepo.FindBySessionForUpdateTx(ctx, tx, sessionID)
			if err != nil {
				return mapStoreErr(err)
			}
			if payment.Finalized() {
				// replayed confirmation, side effect already applied
				return nil
			}

			switch payment.PaymentType {
			case model.PaymentTypeSubscription:
				user, err := s.userRepo.FindByEmailForUpdateTx(ctx, tx, payment.CustomerEmail)
				if err != nil {
					return mapStoreErr(err)
				}
				user.IsPremium = true
				if err := s.userRepo.UpdateTx(ctx, tx, user); err != nil {
					return mapStoreErr(err)
				}

			case model.PaymentTypeBoostIssue:
				if payment.IssueID == nil {
					return fmt.Errorf("%w: payment has no issue", errors.ErrInvalidBoostTarget)
				}
				issue, err := s.issueRepo.FindByIDForUpdateTx(ctx, tx, *payment.IssueID)
				if err != nil {
					return mapStoreErr(err)
				}
				// Re-check at confirmation time: the issue may have been
				// boosted or closed since the session was created.
				if err := boostable(issue, payment.CustomerEmail); err != nil {
					return err
				}
				issue.Priority = model.PriorityHigh
				issue.IsBoosted = true
				if err := s.issueRepo.UpdateTx(ctx, tx, issue); err != nil {
					return mapStoreErr(err)
				}
			}

			now := time.Now()
			payment.Status = model.PaymentStatusPaid
			payment.PaidAt = &now
			if transactionID == "" {
				transactionID = "txn_" + uuid.NewString()
			}
			payment.TransactionID = transactionID
			return mapStoreErr(s.paymentRepo.UpdateTx(ctx, tx, payment))
		})
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, AdminOverviewCacheKey)
	return payment, nil
}

// ListOwn returns the caller's finalized payments.
func (s *paymentService) ListOwn(ctx context.Context, actor auth.Identity, filter repository.PaymentFilter) ([]model.Payment, error) {
	filter.CustomerEmail = actor.Email
	payments, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return payments, nil
}

// ListAll returns all finalized payments for admins.
func (s *paymentService) ListAll(ctx context.Context, actor auth.Identity, filter repository.PaymentFilter) ([]model.Payment, error) {
	if err := s.access.Authorize(actor, OpViewAllPayments, nil); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return payments, nil
}

// GetInvoice returns one finalized payment for the admin invoice view.
func (s *paymentService) GetInvoice(ctx context.Context, actor auth.Identity, paymentID uuid.UUID) (*model.Payment, error) {
	if err := s.access.Authorize(actor, OpViewAllPayments, nil); err != nil {
		return nil, err
	}
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !payment.Finalized() {
		return nil, errors.ErrNotFound
	}
	return payment, nil
}
