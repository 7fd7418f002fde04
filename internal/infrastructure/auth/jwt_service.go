package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dylansm37/guardfile/domain"
)

// JWTServiceImpl implements domain.TokenService. Tokens are stateless: there
// is no revocation list, so a minted token stays valid until its expiry even
// after a refresh replaces it on the client.
type JWTServiceImpl struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewJWTService creates a new JWT session token service
func NewJWTService(secretKey string, issuer string, ttl time.Duration) domain.TokenService {
	return &JWTServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
	}
}

// generateJTI creates a unique JWT ID
func (j *JWTServiceImpl) generateJTI() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Mint implements domain.TokenService
func (j *JWTServiceImpl) Mint(userID uint, username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.ttl)
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"iss":      j.issuer,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
		"jti":      j.generateJTI(), // Unique JWT ID ensures token uniqueness
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// TTL implements domain.TokenService
func (j *JWTServiceImpl) TTL() time.Duration {
	return j.ttl
}

// Verify implements domain.TokenService. Malformed encoding, signature
// mismatch and expiry all come back as token errors; callers at the response
// boundary must collapse them to a single generic rejection.
func (j *JWTServiceImpl) Verify(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return j.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	username, ok := claims["username"].(string)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, domain.ErrTokenExpired
	}

	return &domain.TokenClaims{
		UserID:    uint(userID),
		Username:  username,
		IssuedAt:  int64(iat),
		ExpiresAt: int64(exp),
	}, nil
}
