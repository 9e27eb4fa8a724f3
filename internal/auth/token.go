package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/account-service/internal/domain"
)

var (
	// ErrInvalidToken covers malformed, mis-signed, and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenKind is returned when a token of one kind is presented
	// where the other is expected.
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// TokenManager issues and validates the two JWT kinds the service uses: the
// session token obtained at login and the short-lived elevated token minted
// after password re-verification. The elevated TTL is kept strictly shorter
// than the session TTL.
type TokenManager struct {
	secret      []byte
	sessionTTL  time.Duration
	elevatedTTL time.Duration
	now         func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, sessionTTLMinutes, elevatedTTLMinutes int) *TokenManager {
	if sessionTTLMinutes <= 0 {
		sessionTTLMinutes = 60
	}
	if elevatedTTLMinutes <= 0 || elevatedTTLMinutes >= sessionTTLMinutes {
		elevatedTTLMinutes = 15
	}
	return &TokenManager{
		secret:      []byte(secret),
		sessionTTL:  time.Duration(sessionTTLMinutes) * time.Minute,
		elevatedTTL: time.Duration(elevatedTTLMinutes) * time.Minute,
		now:         time.Now,
	}
}

// Claims describes the JWT payload for both token kinds. Email is only set
// on session tokens.
type Claims struct {
	Kind  domain.TokenKind `json:"kind"`
	Email string           `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a session token for the given principal.
func (tm *TokenManager) GenerateSessionToken(principalID, email string) (string, time.Time, error) {
	return tm.generate(domain.TokenKindSession, principalID, email, tm.sessionTTL)
}

// GenerateElevatedToken signs an elevated token for the given principal.
// Callers are responsible for verifying the principal's password and admin
// role first.
func (tm *TokenManager) GenerateElevatedToken(principalID string) (string, time.Time, error) {
	return tm.generate(domain.TokenKindElevated, principalID, "", tm.elevatedTTL)
}

func (tm *TokenManager) generate(kind domain.TokenKind, principalID, email string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Kind:  kind,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseSessionToken validates a session token and returns its claims.
func (tm *TokenManager) ParseSessionToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, domain.TokenKindSession)
}

// ParseElevatedToken validates an elevated token and returns its claims.
func (tm *TokenManager) ParseElevatedToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, domain.TokenKindElevated)
}

func (tm *TokenManager) parse(tokenStr string, kind domain.TokenKind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}
