package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("secret")

	token, err := m.Generate("42", RoleDispatcher, 7)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, RoleDispatcher, claims.Role)
	assert.Equal(t, int64(7), claims.CompanyID)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := NewManager("secret-a").Generate("1", RoleOwner, 1)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	_, err = NewManager("secret-b").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewManager("secret").Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
