package session

import (
	"errors"
	"fmt"
	"strings"

	"onboarding-cli/internal/model"
	"onboarding-cli/internal/store"
)

var (
	ErrUnauthenticated = errors.New("not logged in")
	ErrForbidden       = errors.New("forbidden for role")
)

// Session is the logged-in role, read once from the store at startup and passed to
// whatever needs to make access decisions.
type Session struct {
	role model.Role
}

func ParseRole(s string) (model.Role, error) {
	switch r := model.Role(strings.ToLower(strings.TrimSpace(s))); r {
	case model.RoleAdmin, model.RoleMentor, model.RoleEmployee, model.RoleUser:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role: %q (expected admin|mentor|employee|user)", s)
	}
}

// Anonymous is a session with no role.
func Anonymous() Session { return Session{} }

func New(role model.Role) Session { return Session{role: role} }

// Load reads the role under store.KeyUserRole. A missing or unrecognized value yields an
// anonymous session; only an unavailable store is reported.
func Load(kv store.KV) (Session, error) {
	raw, ok, err := kv.Get(store.KeyUserRole)
	if err != nil {
		return Anonymous(), fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return Anonymous(), nil
	}
	role, err := ParseRole(raw)
	if err != nil {
		return Anonymous(), nil
	}
	return New(role), nil
}

// Login stores role and returns the resulting session. No credentials are checked.
func Login(kv store.KV, role string) (Session, error) {
	r, err := ParseRole(role)
	if err != nil {
		return Anonymous(), err
	}
	if err := kv.Set(store.KeyUserRole, string(r)); err != nil {
		return Anonymous(), fmt.Errorf("login: %w", err)
	}
	return New(r), nil
}

func Logout(kv store.KV) error {
	if err := kv.Remove(store.KeyUserRole); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s Session) Role() model.Role { return s.role }

func (s Session) Authenticated() bool { return s.role != "" }

func (s Session) Is(roles ...model.Role) bool {
	for _, r := range roles {
		if s.role == r {
			return true
		}
	}
	return false
}
