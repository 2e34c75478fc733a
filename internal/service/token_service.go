package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errBadSubject = errors.New("token subject is not an account id")

// JWTTokenService implements ports.TokenService using HS256 JWT. The subject
// claim carries the decimal account id.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		parser: jwt.NewParser(opts...),
		now:    time.Now,
	}
}

// Issue creates a signed token for the given account.
func (s *JWTTokenService) Issue(accountID int64) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(accountID, 10),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate parses and verifies a token and returns the account id it names.
func (s *JWTTokenService) Validate(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parsing token: %w", err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadSubject
	}
	return id, nil
}
