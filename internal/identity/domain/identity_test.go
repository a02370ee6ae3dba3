package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIdentity_ClaimsOmitsHash(t *testing.T) {
	i := &Identity{ID: "u1", Email: "ann@x.com", Name: "Ann", PasswordHash: "$2a$10$abc"}
	c := i.Claims()
	if c.ID != "u1" || c.Email != "ann@x.com" || c.Name != "Ann" {
		t.Errorf("Claims = %+v", c)
	}
	b, err := json.Marshal(AuthResult{User: c, Token: "t"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(b), "$2a$10$abc") || strings.Contains(strings.ToLower(string(b)), "password") {
		t.Errorf("AuthResult JSON leaks password hash: %s", b)
	}
}

func TestIdentity_JSONNeverContainsHash(t *testing.T) {
	i := &Identity{ID: "u1", Email: "ann@x.com", Name: "Ann", PasswordHash: "secret-hash"}
	b, err := json.Marshal(i)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(b), "secret-hash") {
		t.Errorf("Identity JSON leaks password hash: %s", b)
	}
}

func TestIdentity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		id      Identity
		wantErr bool
	}{
		{"valid", Identity{ID: "u1", Email: "a@b.c", PasswordHash: "h"}, false},
		{"missing id", Identity{Email: "a@b.c", PasswordHash: "h"}, true},
		{"missing email", Identity{ID: "u1", PasswordHash: "h"}, true},
		{"missing hash", Identity{ID: "u1", Email: "a@b.c"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
