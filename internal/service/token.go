package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
)

// TokenService issues and verifies stateless HS256 session tokens.  The
// lifetime is embedded only as the exp claim; nothing is persisted.
type TokenService struct {
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

func NewTokenService(secret string, sessionTTL, rememberTTL time.Duration) *TokenService {
	return &TokenService{
		secret:      []byte(secret),
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.  Tests only.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssuedToken is a signed session token.  TTL is what the session cookie's
// max-age should be set to.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	TTL       time.Duration
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the subject.  rememberMe selects the long TTL.
func (s *TokenService) Issue(subjectID uint64, role model.Role, rememberMe bool) (IssuedToken, error) {
	ttl := s.sessionTTL
	if rememberMe {
		ttl = s.rememberTTL
	}
	now := s.now().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: signed, ExpiresAt: exp, TTL: ttl}, nil
}

// Verify checks signature, algorithm and expiry and returns the identity.
// Every failure is errs.ErrInvalidToken.
func (s *TokenService) Verify(token string) (model.Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return model.Identity{}, errors.Join(errs.ErrInvalidToken, err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return model.Identity{}, errs.ErrInvalidToken
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.Identity{}, errs.ErrInvalidToken
	}
	return model.Identity{ID: id, Role: role}, nil
}
