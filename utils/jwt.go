package utils

import (
	"errors"
	"strconv"
	"time"

	"caketime/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "caketime"

// Claims are the custom JWT claims for both trust domains.
type Claims struct {
	UserID uint        `json:"userId"`
	Role   entity.Role `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

type signer struct {
	audience string
	secret   []byte
	ttl      time.Duration
}

func (s signer) generate(userID uint, role entity.Role) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (s signer) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CustomerTokens signs storefront credentials.
type CustomerTokens struct{ s signer }

func NewCustomerTokens(secret string, ttl time.Duration) *CustomerTokens {
	return &CustomerTokens{s: signer{audience: "storefront", secret: []byte(secret), ttl: ttl}}
}

func (t *CustomerTokens) Generate(userID uint, role entity.Role) (string, error) {
	tok, _, err := t.s.generate(userID, role)
	return tok, err
}

func (t *CustomerTokens) Parse(tokenStr string) (*Claims, error) { return t.s.parse(tokenStr) }

// AdminTokens signs dashboard credentials. They are never accepted by the
// storefront and vice versa.
type AdminTokens struct{ s signer }

func NewAdminTokens(secret string, ttl time.Duration) *AdminTokens {
	return &AdminTokens{s: signer{audience: "dashboard", secret: []byte(secret), ttl: ttl}}
}

func (t *AdminTokens) Generate(userID uint, role entity.Role) (string, *Claims, error) {
	return t.s.generate(userID, role)
}

func (t *AdminTokens) Parse(tokenStr string) (*Claims, error) { return t.s.parse(tokenStr) }
