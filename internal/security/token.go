package security

import (
	"errors"
	"fmt"
	"time"

	"gymhub/internal/apperror"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Messages carried by token verification failures.
const (
	msgInvalidToken = "invalid token"
	msgTokenExpired = "token expired"
)

// Sentinels for errors.Is. Verification returns fresh errors with the
// underlying cause attached; they match these by kind and message.
var (
	ErrInvalidToken = apperror.Unauthorized(msgInvalidToken, nil)
	ErrTokenExpired = apperror.Unauthorized(msgTokenExpired, nil)
)

// TokenPayload is the identity carried by access and refresh tokens.
type TokenPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Claims is the JWT claim set: the identity fields plus the registered claims.
type Claims struct {
	TokenPayload
	jwt.StandardClaims
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IssueToken signs payload with key using HS256. The token expires ttl from now.
func IssueToken(payload TokenPayload, key []byte, ttl time.Duration) (string, error) {
	if len(key) == 0 {
		return "", oops.Code("TOKEN_SIGN_FAILED").Errorf("empty signing key")
	}

	now := time.Now()
	claims := Claims{
		TokenPayload: payload,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   payload.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("user_id", payload.ID).Wrap(err)
	}
	return signed, nil
}

// VerifyToken checks the signature against key and the expiry claim, and
// returns the embedded payload. Every failure is an Unauthorized *apperror.Error.
func VerifyToken(tokenString string, key []byte) (*TokenPayload, error) {
	if len(key) == 0 {
		return nil, apperror.Unauthorized(msgInvalidToken, errors.New("empty verification key"))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if !token.Valid || claims.ExpiresAt == 0 || claims.TokenPayload.ID == "" {
		return nil, apperror.Unauthorized(msgInvalidToken, errors.New("missing required claims"))
	}

	payload := claims.TokenPayload
	return &payload, nil
}

// classifyParseError maps jwt-go's bitmask onto our two messages. A bad
// signature wins over expiry so that forged tokens never read as "expired".
func classifyParseError(err error) error {
	var vErr *jwt.ValidationError
	if errors.As(err, &vErr) {
		switch {
		case vErr.Errors&(jwt.ValidationErrorMalformed|jwt.ValidationErrorUnverifiable|jwt.ValidationErrorSignatureInvalid) != 0:
			return apperror.Unauthorized(msgInvalidToken, err)
		case vErr.Errors&jwt.ValidationErrorExpired != 0:
			return apperror.Unauthorized(msgTokenExpired, err)
		}
	}
	return apperror.Unauthorized(msgInvalidToken, err)
}

// TokenManager issues and verifies access/refresh pairs. Each class has its
// own key.
type TokenManager struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a TokenManager. The two secrets must be non-empty
// and different.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	return &TokenManager{
		accessKey:  []byte(accessSecret),
		refreshKey: []byte(refreshSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssuePair signs a new access and refresh token for payload.
func (m *TokenManager) IssuePair(payload TokenPayload) (*TokenPair, error) {
	access, err := IssueToken(payload, m.accessKey, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := IssueToken(payload, m.refreshKey, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess verifies an access token.
func (m *TokenManager) VerifyAccess(token string) (*TokenPayload, error) {
	return VerifyToken(token, m.accessKey)
}

// VerifyRefresh verifies a refresh token.
func (m *TokenManager) VerifyRefresh(token string) (*TokenPayload, error) {
	return VerifyToken(token, m.refreshKey)
}

// Refresh verifies refreshToken against the refresh key and reissues both
// tokens from its payload.
func (m *TokenManager) Refresh(refreshToken string) (*TokenPair, error) {
	payload, err := m.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	return m.IssuePair(*payload)
}
