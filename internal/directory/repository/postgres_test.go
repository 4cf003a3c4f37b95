package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/staffdir/staffdir-backend/internal/directory/domain"
	"github.com/staffdir/staffdir-backend/pkg/database"
	"github.com/staffdir/staffdir-backend/pkg/logger"
	"github.com/staffdir/staffdir-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T) (*PostgresStore, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })
	return NewPostgresStore(database.Wrap(mockDB.DB, logger.Nop())), mockDB
}

func TestPostgresStore_Migrate(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectExec("CREATE TABLE IF NOT EXISTS employees").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresStore_LoadEmployees(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectQuery(selectEmployeesQuery).WillReturnRows(
		testutil.MockRows("id", "first_name", "last_name", "email", "phone_no", "level", "supervisor").
			AddRow(1, "Mona", "Rao", "mona@example.com", "1234567890", "Manager", "na").
			AddRow(2, "Dev", "Shah", "dev@example.com", "1234567891", "Developer", "1"),
	)

	got, err := store.LoadEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Employee{
		ID: 1, FirstName: "Mona", LastName: "Rao", Email: "mona@example.com",
		PhoneNo: "1234567890", Level: domain.LevelManager, Supervisor: domain.NoSupervisor,
	}, got[0])
	assert.Equal(t, "1", got[1].Supervisor)
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresStore_LoadEmployeesEmpty(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectQuery(selectEmployeesQuery).WillReturnRows(
		testutil.MockRows("id", "first_name", "last_name", "email", "phone_no", "level", "supervisor"),
	)

	got, err := store.LoadEmployees(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresStore_SaveEmployees(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectBegin()
	mockDB.ExpectExec(deleteEmployeesQuery).WillReturnResult(sqlmock.NewResult(0, 5))
	mockDB.ExpectExec(insertEmployeeQuery).
		WithArgs(int64(9), 0, "Ivy", "Lee", "ivy@example.com", "1234567890", "Intern", "8").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec(insertEmployeeQuery).
		WithArgs(int64(8), 1, "Tom", "Kay", "tom@example.com", "1234567899", "Tester", "na").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err := store.SaveEmployees(context.Background(), []domain.Employee{
		{ID: 9, FirstName: "Ivy", LastName: "Lee", Email: "ivy@example.com", PhoneNo: "1234567890", Level: domain.LevelIntern, Supervisor: "8"},
		{ID: 8, FirstName: "Tom", LastName: "Kay", Email: "tom@example.com", PhoneNo: "1234567899", Level: domain.LevelTester, Supervisor: "na"},
	})
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresStore_SaveEmployeesRollsBack(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectBegin()
	mockDB.ExpectExec(deleteEmployeesQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec(insertEmployeeQuery).WillReturnError(errors.New("disk full"))
	mockDB.ExpectRollback()

	err := store.SaveEmployees(context.Background(), []domain.Employee{{ID: 1, Level: domain.LevelManager}})
	assert.ErrorContains(t, err, "disk full")
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresStore_Personal(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectQuery(selectPersonalQuery).WillReturnRows(
		testutil.MockRows("employee_id", "gender", "blood_group", "marital_status", "international_worker", "dob", "physically_disabled").
			AddRow(4, "Female", "B+", "Single", true, "1995-06-15", false),
	)

	got, err := store.LoadPersonal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]domain.PersonalDetails{
		4: {Gender: "Female", BloodGroup: "B+", MaritalStatus: "Single", InternationalWorker: true, DOB: "1995-06-15"},
	}, got)

	mockDB.ExpectBegin()
	mockDB.ExpectExec(deletePersonalQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec(insertPersonalQuery).
		WithArgs(int64(2), "Male", "A+", "Married", false, "1980-01-01", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec(insertPersonalQuery).
		WithArgs(int64(4), "Female", "B+", "Single", true, "1995-06-15", false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	got[2] = domain.PersonalDetails{Gender: "Male", BloodGroup: "A+", MaritalStatus: "Married", DOB: "1980-01-01", PhysicallyDisabled: true}
	require.NoError(t, store.SavePersonal(context.Background(), got))
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresStore_Employment(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectQuery(selectEmploymentQuery).WillReturnRows(
		testutil.MockRows("employee_id", "employer", "designation", "location", "department", "reporting_manager", "doj").
			AddRow(4, "afour", "Developer", "Pune", "Development", "Varun", "2022-03-01"),
	)

	got, err := store.LoadEmployment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.LevelDeveloper, got[4].Designation)
	assert.Equal(t, "Varun", got[4].ReportingManager)

	mockDB.ExpectBegin()
	mockDB.ExpectExec(deleteEmploymentQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	require.NoError(t, store.SaveEmployment(context.Background(), map[int64]domain.EmploymentDetails{}))
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresStore_LoadError(t *testing.T) {
	store, mockDB := newPostgresStore(t)
	mockDB.ExpectQuery(selectEmploymentQuery).WillReturnError(errors.New("connection reset"))

	_, err := store.LoadEmployment(context.Background())
	assert.ErrorContains(t, err, "failed to load employment details")
}
