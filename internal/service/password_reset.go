package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/utils"
)

// ResetRequestedMessage is returned for every reset request, whether or not
// the account exists.
const ResetRequestedMessage = "If an account exists, a reset link has been sent"

// resetDeliveryTimeout bounds ticket storage plus notification for one request.
const resetDeliveryTimeout = 30 * time.Second

// PasswordResetService issues single-use reset tickets and redeems them.
type PasswordResetService struct {
	accounts   AccountStore
	notifier   ResetNotifier
	ttl        time.Duration
	clientURL  string
	bcryptCost int
	now        func() time.Time
	log        *zap.Logger

	pending sync.WaitGroup
}

func NewPasswordResetService(accounts AccountStore, notifier ResetNotifier, ttl time.Duration,
	clientURL string, bcryptCost int, log *zap.Logger) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		accounts:   accounts,
		notifier:   notifier,
		ttl:        ttl,
		clientURL:  strings.TrimRight(clientURL, "/"),
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// WithClock replaces the time source.  Tests only.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// Request starts a reset for email.  The outcome visible to the caller is
// the same for known and unknown emails: once the account is found, ticket
// storage and delivery run in the background and their failures are only
// logged.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return errs.Validation("Email required")
	}
	a, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetDeliveryTimeout)
		defer cancel()
		s.issue(dctx, a)
	}()
	return nil
}

// Wait blocks until every reset started by Request has been delivered or
// has failed.
func (s *PasswordResetService) Wait() {
	s.pending.Wait()
}

func (s *PasswordResetService) issue(ctx context.Context, a model.Account) {
	secret, err := utils.NewSecret(utils.ResetSecretBytes)
	if err != nil {
		s.log.Error("reset secret generation failed", zap.Error(err))
		return
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.accounts.SetResetTicket(ctx, a.ID, utils.HashSecret(secret), expiresAt); err != nil {
		s.log.Error("storing reset ticket failed", zap.Uint64("account_id", a.ID), zap.Error(err))
		return
	}

	notice := model.ResetNotice{
		Email:     a.Email,
		Name:      strings.TrimSpace(a.FirstName + " " + a.LastName),
		ResetURL:  s.clientURL + "/reset-password/" + secret,
		ExpiresAt: expiresAt,
	}
	if err := s.notifier.NotifyPasswordReset(ctx, notice); err != nil {
		s.log.Error("reset notification failed", zap.Uint64("account_id", a.ID), zap.Error(err))
		return
	}
	s.log.Info("password reset requested", zap.Uint64("account_id", a.ID))
}

// Redeem sets a new password if secret names a live ticket.  Expired,
// unknown and already used secrets all yield errs.ErrResetTokenInvalid.
// Dead secrets are rejected before hashing; the swap itself stays
// conditional on the ticket.
func (s *PasswordResetService) Redeem(ctx context.Context, secret, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if secret == "" {
		return errs.ErrResetTokenInvalid
	}
	ticket := utils.HashSecret(secret)
	live, err := s.accounts.ResetTicketLive(ctx, ticket, s.now())
	if err != nil {
		return err
	}
	if !live {
		return errs.ErrResetTokenInvalid
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	ok, err := s.accounts.RedeemResetTicket(ctx, ticket, hash, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrResetTokenInvalid
	}
	return nil
}
