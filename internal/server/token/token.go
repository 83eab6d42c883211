package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Verify fails closed: any structural or
// cryptographic anomaly maps to exactly one of these, never a silent pass.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

const issuer = "noteit"

// Claims represents the signed claim bundle carried by access and refresh
// tokens. Subject holds the user id as a decimal string.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as a numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject is not a numeric id", ErrMalformed)
	}
	return id, nil
}

// Service signs and verifies HS256 JWTs with a single symmetric key.
// The key is immutable for the process lifetime; there is no rotation.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a token service. secret must be the already-decoded
// key material (see config.JWTSecret).
func NewService(secret []byte, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// SignAccess creates a new access token for the given user.
func (s *Service) SignAccess(userID int64, username, email string) (string, error) {
	return s.Sign(userID, username, email, s.accessTTL)
}

// SignRefresh creates a new refresh token value for the given user and
// returns it together with its expiry.
func (s *Service) SignRefresh(userID int64, username, email string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.refreshTTL)
	tok, err := s.Sign(userID, username, email, s.refreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, expiresAt, nil
}

// Sign produces a compact signed token with the given TTL. The signature
// covers header and payload; the expiry is embedded in the payload.
func (s *Service) Sign(userID int64, username, email string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the token signature and expiry and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc,
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// PeekSubject extracts the user id from a token whose signature checks out,
// without treating expiry as an error. An expired access token must still be
// able to identify whose session to renew.
func (s *Service) PeekSubject(tokenString string) (int64, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)

	tok, err := parser.ParseWithClaims(tokenString, &Claims{}, s.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return 0, ErrSignatureInvalid
		}
		return 0, ErrMalformed
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return 0, ErrMalformed
	}
	return claims.UserID()
}

func (s *Service) keyFunc(tok *jwt.Token) (interface{}, error) {
	if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
	}
	return s.secret, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return fmt.Errorf("failed to parse token: %w", err)
	}
}
