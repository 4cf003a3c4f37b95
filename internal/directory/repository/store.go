// Package repository persists the employee collection and its two detail
// side-tables. Every load reads the whole collection and every save replaces
// it; nothing here provides atomicity across separate calls.
package repository

import (
	"context"

	"github.com/staffdir/staffdir-backend/internal/directory/domain"
)

// Store is the persistence contract used by the directory service
type Store interface {
	LoadEmployees(ctx context.Context) ([]domain.Employee, error)
	SaveEmployees(ctx context.Context, employees []domain.Employee) error

	LoadPersonal(ctx context.Context) (map[int64]domain.PersonalDetails, error)
	SavePersonal(ctx context.Context, details map[int64]domain.PersonalDetails) error

	LoadEmployment(ctx context.Context) (map[int64]domain.EmploymentDetails, error)
	SaveEmployment(ctx context.Context, details map[int64]domain.EmploymentDetails) error

	// Health reports whether the backing storage is reachable
	Health(ctx context.Context) map[string]string
}
