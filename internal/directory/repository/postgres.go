package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/staffdir/staffdir-backend/internal/directory/domain"
	"github.com/staffdir/staffdir-backend/pkg/database"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS employees (
	id          BIGINT PRIMARY KEY,
	position    INTEGER NOT NULL,
	first_name  TEXT NOT NULL,
	last_name   TEXT NOT NULL,
	email       TEXT NOT NULL,
	phone_no    TEXT NOT NULL,
	level       TEXT NOT NULL,
	supervisor  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS personal_details (
	employee_id          BIGINT PRIMARY KEY,
	gender               TEXT NOT NULL,
	blood_group          TEXT NOT NULL,
	marital_status       TEXT NOT NULL,
	international_worker BOOLEAN NOT NULL,
	dob                  TEXT NOT NULL,
	physically_disabled  BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS employment_details (
	employee_id       BIGINT PRIMARY KEY,
	employer          TEXT NOT NULL,
	designation       TEXT NOT NULL,
	location          TEXT NOT NULL,
	department        TEXT NOT NULL,
	reporting_manager TEXT NOT NULL,
	doj               TEXT NOT NULL
);
`

// Side tables carry no foreign key: entries may briefly outlive their
// employee while a delete's cleanup is still pending.

const (
	selectEmployeesQuery = `SELECT id, first_name, last_name, email, phone_no, level, supervisor FROM employees ORDER BY position`
	deleteEmployeesQuery = `DELETE FROM employees`
	insertEmployeeQuery  = `INSERT INTO employees (id, position, first_name, last_name, email, phone_no, level, supervisor) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectPersonalQuery = `SELECT employee_id, gender, blood_group, marital_status, international_worker, dob, physically_disabled FROM personal_details`
	deletePersonalQuery = `DELETE FROM personal_details`
	insertPersonalQuery = `INSERT INTO personal_details (employee_id, gender, blood_group, marital_status, international_worker, dob, physically_disabled) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectEmploymentQuery = `SELECT employee_id, employer, designation, location, department, reporting_manager, doj FROM employment_details`
	deleteEmploymentQuery = `DELETE FROM employment_details`
	insertEmploymentQuery = `INSERT INTO employment_details (employee_id, employer, designation, location, department, reporting_manager, doj) VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

type personalRow struct {
	EmployeeID int64 `db:"employee_id"`
	domain.PersonalDetails
}

type employmentRow struct {
	EmployeeID int64 `db:"employee_id"`
	domain.EmploymentDetails
}

// PostgresStore keeps the collections in three tables. Each save replaces
// one table inside a single transaction.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a new postgres-backed store
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// LoadEmployees returns employees in stored order
func (s *PostgresStore) LoadEmployees(ctx context.Context) ([]domain.Employee, error) {
	employees := []domain.Employee{}
	if err := s.db.SelectContext(ctx, &employees, selectEmployeesQuery); err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	return employees, nil
}

// SaveEmployees replaces the employees table, keeping slice order as position
func (s *PostgresStore) SaveEmployees(ctx context.Context, employees []domain.Employee) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteEmployeesQuery); err != nil {
			return fmt.Errorf("failed to clear employees: %w", err)
		}
		for i, e := range employees {
			_, err := tx.ExecContext(ctx, insertEmployeeQuery,
				e.ID, i, e.FirstName, e.LastName, e.Email, e.PhoneNo, string(e.Level), e.Supervisor)
			if err != nil {
				return fmt.Errorf("failed to insert employee %d: %w", e.ID, database.Explain(err))
			}
		}
		return nil
	})
}

// LoadPersonal returns personal details keyed by employee id
func (s *PostgresStore) LoadPersonal(ctx context.Context) (map[int64]domain.PersonalDetails, error) {
	var rows []personalRow
	if err := s.db.SelectContext(ctx, &rows, selectPersonalQuery); err != nil {
		return nil, fmt.Errorf("failed to load personal details: %w", err)
	}

	out := make(map[int64]domain.PersonalDetails, len(rows))
	for _, r := range rows {
		out[r.EmployeeID] = r.PersonalDetails
	}
	return out, nil
}

// SavePersonal replaces the personal_details table
func (s *PostgresStore) SavePersonal(ctx context.Context, details map[int64]domain.PersonalDetails) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deletePersonalQuery); err != nil {
			return fmt.Errorf("failed to clear personal details: %w", err)
		}
		for _, id := range sortedKeys(details) {
			d := details[id]
			_, err := tx.ExecContext(ctx, insertPersonalQuery,
				id, d.Gender, d.BloodGroup, d.MaritalStatus, d.InternationalWorker, d.DOB, d.PhysicallyDisabled)
			if err != nil {
				return fmt.Errorf("failed to insert personal details %d: %w", id, database.Explain(err))
			}
		}
		return nil
	})
}

// LoadEmployment returns employment details keyed by employee id
func (s *PostgresStore) LoadEmployment(ctx context.Context) (map[int64]domain.EmploymentDetails, error) {
	var rows []employmentRow
	if err := s.db.SelectContext(ctx, &rows, selectEmploymentQuery); err != nil {
		return nil, fmt.Errorf("failed to load employment details: %w", err)
	}

	out := make(map[int64]domain.EmploymentDetails, len(rows))
	for _, r := range rows {
		out[r.EmployeeID] = r.EmploymentDetails
	}
	return out, nil
}

// SaveEmployment replaces the employment_details table
func (s *PostgresStore) SaveEmployment(ctx context.Context, details map[int64]domain.EmploymentDetails) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteEmploymentQuery); err != nil {
			return fmt.Errorf("failed to clear employment details: %w", err)
		}
		for _, id := range sortedKeys(details) {
			d := details[id]
			_, err := tx.ExecContext(ctx, insertEmploymentQuery,
				id, d.Employer, string(d.Designation), d.Location, d.Department, d.ReportingManager, d.DOJ)
			if err != nil {
				return fmt.Errorf("failed to insert employment details %d: %w", id, database.Explain(err))
			}
		}
		return nil
	})
}

// Health pings the database
func (s *PostgresStore) Health(ctx context.Context) map[string]string {
	status := s.db.Health(ctx)
	status["driver"] = "postgres"
	return status
}
