package auth

import "github.com/inventario/inventario/internal/shared"

// Account is a directory entry as stored in the credential store.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Active       bool
	Role         string
}

// Outcome classifies a credential verification.
type Outcome uint8

const (
	OutcomeAuthenticated Outcome = iota + 1
	OutcomeInvalidCredentials
	OutcomeAccountInactive
	OutcomeAccountNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeInvalidCredentials:
		return "invalid_credentials"
	case OutcomeAccountInactive:
		return "account_inactive"
	case OutcomeAccountNotFound:
		return "account_not_found"
	default:
		return "unknown"
	}
}

// Result is the verifier's answer. Account and Role are only meaningful when
// Outcome is OutcomeAuthenticated.
type Result struct {
	Outcome Outcome
	Account *Account
	Role    shared.Role
}

// Authenticated reports whether the credentials were accepted.
func (r Result) Authenticated() bool {
	return r.Outcome == OutcomeAuthenticated
}

// Err collapses every failed outcome into the one error callers may show.
func (r Result) Err() error {
	if r.Authenticated() {
		return nil
	}
	return shared.ErrInvalidCredentials
}

// SeedAccount describes an account provisioned at startup.
type SeedAccount struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     shared.Role
}

// DefaultSeedAccounts returns the demo accounts created on first start.
func DefaultSeedAccounts() []SeedAccount {
	return []SeedAccount{
		{Username: "admin", Email: "admin@inventario.com", Password: "admin123", FullName: "Usuario Administrador", Role: shared.RoleAdmin},
		{Username: "user", Email: "user@inventario.com", Password: "user123", FullName: "Usuario Estándar", Role: shared.RoleUser},
	}
}
