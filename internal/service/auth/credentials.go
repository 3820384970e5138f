package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/innkeep/internal/config"
	employeerepo "github.com/Additional-Code/innkeep/internal/repository/employee"
)

// ErrInvalidCredentials is returned when a username/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialStore verifies a username/password pair.
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
}

// StaffStore checks the configured administrator first, then active employees with bcrypt hashes.
type StaffStore struct {
	admin     config.Auth
	employees *employeerepo.Repository
}

// NewStaffStore builds the default CredentialStore.
func NewStaffStore(cfg config.Config, employees *employeerepo.Repository) *StaffStore {
	return &StaffStore{admin: cfg.Auth, employees: employees}
}

// Authenticate implements CredentialStore.
func (s *StaffStore) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if username == s.admin.AdminUsername {
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.AdminPassword)) != 1 {
			return nil, ErrInvalidCredentials
		}
		return &Principal{Subject: username, Name: "Administrator", Admin: true}, nil
	}
	if s.employees == nil {
		return nil, ErrInvalidCredentials
	}

	emp, err := s.employees.ByUsername(ctx, username)
	if errors.Is(err, employeerepo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if emp.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &Principal{
		Subject:    emp.EmployeeID,
		Name:       emp.EmployeeName,
		Department: emp.DepartmentName,
	}, nil
}

// HashPassword bcrypt-hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
