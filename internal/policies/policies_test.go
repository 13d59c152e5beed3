package policies

import (
	"testing"

	"github.com/PauloHFS/hcportal/internal/db"
)

func TestCanManageShift(t *testing.T) {
	owner := db.User{ID: 2, Role: db.RoleProfessional}
	other := db.User{ID: 3, Role: db.RoleProfessional}
	admin := db.User{ID: 1, Role: db.RoleAdmin}
	shift := db.Shift{ID: 10, UserID: 2}

	tests := []struct {
		name     string
		user     db.User
		expected bool
	}{
		{"Dono pode gerenciar o turno", owner, true},
		{"Outro profissional não pode", other, false},
		{"Admin não age pelo profissional", admin, false},
		{"Usuário vazio", db.User{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanManageShift(tt.user, shift); got != tt.expected {
				t.Errorf("falha em %s: esperado %v, obtido %v", tt.name, tt.expected, got)
			}
		})
	}
}

func TestEnforcer(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		role, path, method string
		want               bool
	}{
		{"professional", "/my-shifts", "GET", true},
		{"professional", "/my-shifts/4/accept", "POST", true},
		{"professional", "/profile/bank-account", "POST", true},
		{"professional", "/admin", "GET", false},
		{"professional", "/admin/dead-letters/1/reprocess", "POST", false},
		{"admin", "/admin", "GET", true},
		{"admin", "/admin/dead-letters/1/reprocess", "POST", true},
		{"admin", "/profile", "GET", true},
		{"guest", "/profile", "GET", false},
		{"professional", "/my-shifts", "HEAD", true},
		{"professional", "/profile", "HEAD", true},
		{"professional", "/my-shifts/4/accept", "HEAD", false},
		{"professional", "/profile", "DELETE", false},
		{"professional", "/profile", "XGETX", false},
		{"professional", "/my-shifts", "POST", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.method+" "+tt.path, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.path, tt.method)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Enforce = %v, want %v", got, tt.want)
			}
		})
	}
}
