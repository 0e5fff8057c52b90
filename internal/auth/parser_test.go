package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/pointage/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	p := NewParser("secret")
	token, err := p.Issue("user-1", model.RoleEmployee, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	principal, err := p.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if principal.UserID != "user-1" || principal.Role != model.RoleEmployee {
		t.Errorf("principal = %+v", principal)
	}
}

func TestParseRejects(t *testing.T) {
	p := NewParser("secret")

	expired, _ := p.Issue("user-1", model.RoleEmployee, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	foreign, _ := NewParser("other").Issue("user-1", model.RoleEmployee, jwt.RegisteredClaims{})
	anonymous, _ := p.Issue("", model.RoleEmployee, jwt.RegisteredClaims{})

	for name, token := range map[string]string{
		"expired":   expired,
		"foreign":   foreign,
		"anonymous": anonymous,
		"garbage":   "not-a-token",
	} {
		if _, err := p.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}
