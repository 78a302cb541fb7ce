package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/storetest"
	"github.com/iliyamo/streaming-catalog/internal/utils"
)

type resetFixture struct {
	auth     *AuthService
	reset    *PasswordResetService
	accounts *storetest.Accounts
	notifier *storetest.Notifier
	clock    *fakeClock
}

func newResetFixture(t *testing.T) resetFixture {
	t.Helper()
	accounts := storetest.NewAccounts()
	notifier := &storetest.Notifier{}
	clock := newClock()
	tokens := NewTokenService(testSecret, time.Hour, time.Hour)
	f := resetFixture{
		auth:     NewAuthService(accounts, tokens, testCost, nil),
		reset:    NewPasswordResetService(accounts, notifier, 15*time.Minute, "https://watch.example.com/", testCost, nil).WithClock(clock.Now),
		accounts: accounts,
		notifier: notifier,
		clock:    clock,
	}
	_, err := f.auth.Register(context.Background(), RegisterInput{FirstName: "Ann", Email: "ann@example.com", Password: "oldpass"})
	require.NoError(t, err)
	return f
}

func secretFrom(t *testing.T, n *storetest.Notifier) string {
	t.Helper()
	notice, ok := n.Last()
	require.True(t, ok)
	const prefix = "https://watch.example.com/reset-password/"
	require.True(t, strings.HasPrefix(notice.ResetURL, prefix), notice.ResetURL)
	return strings.TrimPrefix(notice.ResetURL, prefix)
}

func TestReset_KnownAndUnknownLookAlike(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reset.Request(ctx, "ann@example.com"))
	require.NoError(t, f.reset.Request(ctx, "nobody@example.com"))
	f.reset.Wait()
	require.Len(t, f.notifier.Notices, 1)
}

func TestReset_StoresOnlyHash(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reset.Request(ctx, "ann@example.com"))
	f.reset.Wait()
	secret := secretFrom(t, f.notifier)
	require.Len(t, secret, 64)

	a, err := f.accounts.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	hash, exp, ok := f.accounts.Ticket(a.ID)
	require.True(t, ok)
	require.Equal(t, utils.HashSecret(secret), hash)
	require.NotEqual(t, secret, hash)
	require.Equal(t, f.clock.Now().Add(15*time.Minute), exp)

	notice, _ := f.notifier.Last()
	require.Equal(t, "ann@example.com", notice.Email)
	require.Equal(t, "Ann", notice.Name)
}

func TestReset_RedeemOnce(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reset.Request(ctx, "ann@example.com"))
	f.reset.Wait()
	secret := secretFrom(t, f.notifier)

	require.NoError(t, f.reset.Redeem(ctx, secret, "newpass"))
	_, err := f.auth.Login(ctx, "ann@example.com", "newpass", false)
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "ann@example.com", "oldpass", false)
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	err = f.reset.Redeem(ctx, secret, "thirdpass")
	require.ErrorIs(t, err, errs.ErrResetTokenInvalid)
}

func TestReset_Expired(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reset.Request(ctx, "ann@example.com"))
	f.reset.Wait()
	secret := secretFrom(t, f.notifier)

	f.clock.Advance(15 * time.Minute)
	require.ErrorIs(t, f.reset.Redeem(ctx, secret, "newpass"), errs.ErrResetTokenInvalid)
}

func TestReset_NewRequestSupersedesOld(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reset.Request(ctx, "ann@example.com"))
	f.reset.Wait()
	first := secretFrom(t, f.notifier)
	require.NoError(t, f.reset.Request(ctx, "ann@example.com"))
	f.reset.Wait()
	second := secretFrom(t, f.notifier)
	require.NotEqual(t, first, second)

	require.ErrorIs(t, f.reset.Redeem(ctx, first, "newpass"), errs.ErrResetTokenInvalid)
	require.NoError(t, f.reset.Redeem(ctx, second, "newpass"))
}

func TestReset_Validation(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.Equal(t, errs.KindValidation, errs.KindOf(f.reset.Request(ctx, "  ")))
	err := f.reset.Redeem(ctx, "whatever", "123")
	require.Equal(t, errs.KindValidation, errs.KindOf(err))
	require.Equal(t, "Password must be at least 6 characters", errs.PublicMessage(err))
	require.ErrorIs(t, f.reset.Redeem(ctx, "", "longenough"), errs.ErrResetTokenInvalid)
	require.ErrorIs(t, f.reset.Redeem(ctx, "never-issued", "longenough"), errs.ErrResetTokenInvalid)
}

func TestReset_NotifierFailureIsSwallowed(t *testing.T) {
	f := newResetFixture(t)
	f.notifier.Err = errors.New("smtp down")
	require.NoError(t, f.reset.Request(context.Background(), "ann@example.com"))
	f.reset.Wait()
}

type slowNotifier struct {
	release chan struct{}
	sent    chan model.ResetNotice
}

func (n *slowNotifier) NotifyPasswordReset(ctx context.Context, notice model.ResetNotice) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	n.sent <- notice
	return nil
}

func TestReset_DeliveryDoesNotBlockRequest(t *testing.T) {
	accounts := storetest.NewAccounts()
	auth := NewAuthService(accounts, NewTokenService(testSecret, time.Hour, time.Hour), testCost, nil)
	_, err := auth.Register(context.Background(), RegisterInput{Email: "ann@example.com", Password: "oldpass"})
	require.NoError(t, err)

	n := &slowNotifier{release: make(chan struct{}), sent: make(chan model.ResetNotice, 1)}
	reset := NewPasswordResetService(accounts, n, 15*time.Minute, "https://watch.example.com", testCost, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, reset.Request(ctx, "ann@example.com"))
	// The request is over; delivery must outlive its context.
	cancel()

	select {
	case <-n.sent:
		t.Fatal("notice delivered before the notifier was released")
	default:
	}
	close(n.release)
	reset.Wait()
	notice := <-n.sent
	require.Equal(t, "ann@example.com", notice.Email)
}

type countingAccounts struct {
	*storetest.Accounts
	redeems int
}

func (c *countingAccounts) RedeemResetTicket(ctx context.Context, hash, passwordHash string, now time.Time) (bool, error) {
	c.redeems++
	return c.Accounts.RedeemResetTicket(ctx, hash, passwordHash, now)
}

func TestReset_DeadSecretSkipsHashing(t *testing.T) {
	accounts := &countingAccounts{Accounts: storetest.NewAccounts()}
	reset := NewPasswordResetService(accounts, &storetest.Notifier{}, 15*time.Minute, "https://watch.example.com", testCost, nil)

	require.ErrorIs(t, reset.Redeem(context.Background(), "never-issued", "longenough"), errs.ErrResetTokenInvalid)
	require.Zero(t, accounts.redeems)
}

func TestReset_OverlongPassword(t *testing.T) {
	f := newResetFixture(t)
	err := f.reset.Redeem(context.Background(), "whatever", strings.Repeat("x", utils.MaxPasswordLength+1))
	require.Equal(t, errs.KindValidation, errs.KindOf(err))
	require.Equal(t, "Password must be at most 72 bytes", errs.PublicMessage(err))
}
