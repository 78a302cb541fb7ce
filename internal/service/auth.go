package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/utils"
)

// AuthService registers accounts and opens sessions for them.
type AuthService struct {
	accounts   AccountStore
	tokens     *TokenService
	bcryptCost int
	log        *zap.Logger
}

func NewAuthService(accounts AccountStore, tokens *TokenService, bcryptCost int, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{accounts: accounts, tokens: tokens, bcryptCost: bcryptCost, log: log}
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Session is an authenticated account together with its freshly issued token.
type Session struct {
	Account model.Account
	Token   IssuedToken
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errs.Validation("Email and password are required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return errs.Validation("Invalid email")
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if len(password) < utils.MinPasswordLength {
		return errs.Validation("Password must be at least 6 characters")
	}
	if len(password) > utils.MaxPasswordLength {
		return errs.Validation("Password must be at most 72 bytes")
	}
	return nil
}

func (s *AuthService) newAccount(ctx context.Context, in RegisterInput, role model.Role) (model.Account, error) {
	if err := validateCredentials(in.Email, in.Password); err != nil {
		return model.Account{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.Account{}, err
	}
	a := model.Account{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}
	if err := s.accounts.Create(ctx, &a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// Register creates a user account and opens a default-length session.
// A taken email yields errs.ErrEmailExists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	a, err := s.newAccount(ctx, in, model.RoleUser)
	if err != nil {
		return Session{}, err
	}
	tok, err := s.tokens.Issue(a.ID, a.Role, false)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("account registered", zap.Uint64("account_id", a.ID))
	return Session{Account: a, Token: tok}, nil
}

// Login verifies credentials.  Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (Session, error) {
	a, err := s.authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	tok, err := s.tokens.Issue(a.ID, a.Role, rememberMe)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: a, Token: tok}, nil
}

// LoginAdmin is Login restricted to admin accounts.  A valid user account
// gets the same answer as a wrong password.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (Session, error) {
	a, err := s.authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if a.Role != model.RoleAdmin {
		s.log.Warn("admin login by non-admin", zap.Uint64("account_id", a.ID))
		return Session{}, errs.ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(a.ID, a.Role, true)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: a, Token: tok}, nil
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (model.Account, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return model.Account{}, errs.Validation("Email and password are required")
	}
	a, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		utils.BurnPasswordCheck(password)
		return model.Account{}, errs.ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, err
	}
	if !utils.VerifyPassword(a.PasswordHash, password) {
		return model.Account{}, errs.ErrInvalidCredentials
	}
	return a, nil
}

// CreateAdmin creates another admin account.  Callers must already be admin.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (model.Account, error) {
	a, err := s.newAccount(ctx, in, model.RoleAdmin)
	if err != nil {
		return model.Account{}, err
	}
	s.log.Info("admin account created", zap.Uint64("account_id", a.ID))
	return a, nil
}

// EnsureAdmin makes sure an admin account with email exists, promoting an
// existing user account if necessary.  The password of an existing account
// is left unchanged.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	a, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if a.Role == model.RoleAdmin {
			return nil
		}
		s.log.Info("promoting bootstrap account to admin", zap.Uint64("account_id", a.ID))
		return s.accounts.UpdateRole(ctx, a.ID, model.RoleAdmin)
	case errors.Is(err, errs.ErrNotFound):
		_, err := s.CreateAdmin(ctx, RegisterInput{Email: email, Password: password, FirstName: "Admin"})
		return err
	default:
		return err
	}
}

// Me loads the account behind a verified identity.
func (s *AuthService) Me(ctx context.Context, id uint64) (model.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Account{}, errs.NotFound("Not found")
	}
	return a, err
}

// LoginExternal opens a session for an identity vouched for by an external
// provider, creating a user account on first sight.  The generated password
// is never revealed; such accounts can set one through password reset.
func (s *AuthService) LoginExternal(ctx context.Context, ext ExternalIdentity) (Session, error) {
	a, err := s.accounts.GetByEmail(ctx, ext.Email)
	if errors.Is(err, errs.ErrNotFound) {
		secret, serr := utils.NewSecret(24)
		if serr != nil {
			return Session{}, serr
		}
		a, err = s.newAccount(ctx, RegisterInput{
			FirstName: ext.FirstName,
			LastName:  ext.LastName,
			Email:     ext.Email,
			Password:  secret,
		}, model.RoleUser)
		if errors.Is(err, errs.ErrEmailExists) {
			a, err = s.accounts.GetByEmail(ctx, ext.Email)
		}
	}
	if err != nil {
		return Session{}, err
	}
	tok, err := s.tokens.Issue(a.ID, a.Role, false)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: a, Token: tok}, nil
}
