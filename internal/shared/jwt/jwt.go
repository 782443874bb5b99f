package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleOwner      = "owner"
	RoleDispatcher = "dispatcher"
	RoleDriver     = "driver"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what the user directory encodes into a bearer token: who the
// subject is, what role they hold and which company they belong to.
type Claims struct {
	Role      string `json:"role"`
	CompanyID int64  `json:"companyId"`
	jwt.RegisteredClaims
}

type Manager struct {
	key []byte
}

func NewManager(secret string) *Manager {
	return &Manager{key: []byte(secret)}
}

func (m *Manager) Generate(subjectID, role string, companyID int64) (string, error) {
	claims := &Claims{
		Role:      role,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.key)
}

func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
