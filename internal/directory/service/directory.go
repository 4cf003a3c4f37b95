// Package service implements the directory operations on top of a Store.
//
// Every mutation is a load, mutate, save chain over whole collections. The
// chains are serialized behind one mutex so parallel requests do not lose
// each other's writes; reads take no lock. Nothing makes writes to different
// collections atomic.
package service

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/staffdir/staffdir-backend/internal/directory/domain"
	"github.com/staffdir/staffdir-backend/internal/directory/events"
	"github.com/staffdir/staffdir-backend/internal/directory/hierarchy"
	"github.com/staffdir/staffdir-backend/internal/directory/repository"
	"github.com/staffdir/staffdir-backend/internal/directory/validation"
	"github.com/staffdir/staffdir-backend/pkg/errors"
	"github.com/staffdir/staffdir-backend/pkg/logger"
)

// DirectoryService handles employee directory business logic
type DirectoryService struct {
	store     repository.Store
	validator *validation.Validator
	publisher *events.EmployeePublisher
	ids       *IDGenerator
	logger    *logger.Logger

	mu      sync.Mutex
	cleanup sync.WaitGroup
}

// NewDirectoryService creates a new directory service. publisher may be nil.
func NewDirectoryService(
	store repository.Store,
	validator *validation.Validator,
	publisher *events.EmployeePublisher,
	ids *IDGenerator,
	log *logger.Logger,
) *DirectoryService {
	if ids == nil {
		ids = NewIDGenerator()
	}
	return &DirectoryService{
		store:     store,
		validator: validator,
		publisher: publisher,
		ids:       ids,
		logger:    log.WithComponent("directory-service"),
	}
}

func notFound() *errors.AppError {
	return errors.NotFound("employee")
}

// storageError wraps a failed save with the employee it concerned
func storageError(err error, message string, id int64) *errors.AppError {
	return errors.Wrap(err, "STORAGE_ERROR", message, http.StatusInternalServerError).
		WithDetails(map[string]string{"employee_id": strconv.FormatInt(id, 10)})
}

// List returns every employee in stored order
func (s *DirectoryService) List(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, notFound()
	}
	return domain.VisibleAll(employees), nil
}

// GetByID returns a single employee
func (s *DirectoryService) GetByID(ctx context.Context, id int64) (domain.Employee, error) {
	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return domain.Employee{}, err
	}
	emp, ok := hierarchy.FindByID(employees, id)
	if !ok {
		return domain.Employee{}, notFound()
	}
	return emp.Visible(), nil
}

// GetByLevel returns employees whose level matches, ignoring case
func (s *DirectoryService) GetByLevel(ctx context.Context, level string) ([]domain.Employee, error) {
	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	matched := hierarchy.FindByLevel(employees, level)
	if len(matched) == 0 {
		return nil, notFound()
	}
	return domain.VisibleAll(matched), nil
}

// Add validates payload as a new employee, assigns an id and appends it.
// A validation failure carries every violation joined into one message.
func (s *DirectoryService) Add(ctx context.Context, payload map[string]any) (domain.Employee, error) {
	emp, errs := s.validator.NewEmployee(payload)
	if len(errs) > 0 {
		return domain.Employee{}, errors.Validation(validation.Combined(errs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return domain.Employee{}, err
	}

	emp.ID = s.ids.Next(employees)
	if err := s.store.SaveEmployees(ctx, append(employees, emp)); err != nil {
		return domain.Employee{}, storageError(err, "failed to add employee", emp.ID)
	}

	s.logger.Info().Int64("employee_id", emp.ID).Str("level", string(emp.Level)).Msg("employee added")
	s.publisher.PublishEmployeeCreated(ctx, emp)

	return emp.Visible(), nil
}

// Update validates payload as a patch and merges it over the stored record.
// Validation runs before the existence check.
func (s *DirectoryService) Update(ctx context.Context, id int64, payload map[string]any) (domain.Employee, error) {
	patch, errs := s.validator.EmployeeUpdate(payload)
	if len(errs) > 0 {
		return domain.Employee{}, errors.Validation(validation.Combined(errs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return domain.Employee{}, err
	}

	idx := indexOf(employees, id)
	if idx < 0 {
		return domain.Employee{}, notFound()
	}

	employees[idx] = patch.Apply(employees[idx])
	if err := s.store.SaveEmployees(ctx, employees); err != nil {
		return domain.Employee{}, storageError(err, "failed to update employee", id)
	}

	s.logger.Info().Int64("employee_id", id).Int("fields", len(payload)).Msg("employee updated")
	s.publisher.PublishEmployeeUpdated(ctx, id, payload)

	return employees[idx].Visible(), nil
}

// Delete removes the employee and returns the removed record. Its personal
// and employment entries are pruned in the background; a failure there is
// logged and never reported to the caller.
func (s *DirectoryService) Delete(ctx context.Context, id int64) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return domain.Employee{}, err
	}

	idx := indexOf(employees, id)
	if idx < 0 {
		return domain.Employee{}, notFound()
	}

	removed := employees[idx]
	remaining := append(employees[:idx:idx], employees[idx+1:]...)
	if err := s.store.SaveEmployees(ctx, remaining); err != nil {
		return domain.Employee{}, storageError(err, "failed to delete employee", id)
	}

	s.logger.Info().Int64("employee_id", id).Msg("employee deleted")
	s.publisher.PublishEmployeeDeleted(ctx, id)

	s.cleanup.Add(1)
	go s.pruneDetails(context.WithoutCancel(ctx), id)

	return removed.Visible(), nil
}

func (s *DirectoryService) pruneDetails(ctx context.Context, id int64) {
	defer s.cleanup.Done()

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.WithEmployeeID(id)

	if personal, err := s.store.LoadPersonal(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load personal details for cleanup")
	} else if _, ok := personal[id]; ok {
		delete(personal, id)
		if err := s.store.SavePersonal(ctx, personal); err != nil {
			log.Error().Err(err).Msg("failed to prune personal details")
		}
	}

	if employment, err := s.store.LoadEmployment(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load employment details for cleanup")
	} else if _, ok := employment[id]; ok {
		delete(employment, id)
		if err := s.store.SaveEmployment(ctx, employment); err != nil {
			log.Error().Err(err).Msg("failed to prune employment details")
		}
	}
}

// Wait blocks until every background cleanup started by Delete has finished
func (s *DirectoryService) Wait() {
	s.cleanup.Wait()
}

// Superiors returns the chain of superiors above id, nearest first
func (s *DirectoryService) Superiors(ctx context.Context, id int64) ([]domain.Employee, error) {
	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	chain := hierarchy.Superiors(employees, id)
	if len(chain) == 0 {
		return nil, notFound()
	}
	return domain.VisibleAll(chain), nil
}

// Subordinates returns everyone below id in depth-first pre-order
func (s *DirectoryService) Subordinates(ctx context.Context, id int64) ([]domain.Employee, error) {
	employees, err := s.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	reports := hierarchy.Subordinates(employees, id)
	if len(reports) == 0 {
		return nil, notFound()
	}
	return domain.VisibleAll(reports), nil
}

// AddPersonalDetails stores personal details for an existing employee,
// replacing any previous entry. Only the first violation is reported.
func (s *DirectoryService) AddPersonalDetails(ctx context.Context, id int64, payload map[string]any) (domain.PersonalDetails, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return domain.PersonalDetails{}, err
	}

	details, errs := s.validator.Personal(payload)
	if len(errs) > 0 {
		return domain.PersonalDetails{}, errors.Validation(validation.First(errs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	personal, err := s.store.LoadPersonal(ctx)
	if err != nil {
		return domain.PersonalDetails{}, err
	}
	personal[id] = details
	if err := s.store.SavePersonal(ctx, personal); err != nil {
		return domain.PersonalDetails{}, storageError(err, "failed to store personal details", id)
	}

	s.logger.Info().Int64("employee_id", id).Msg("personal details stored")
	s.publisher.PublishPersonalStored(ctx, id)

	return details, nil
}

// AddEmploymentDetails stores employment details for an existing employee,
// replacing any previous entry. Only the first violation is reported.
func (s *DirectoryService) AddEmploymentDetails(ctx context.Context, id int64, payload map[string]any) (domain.EmploymentDetails, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return domain.EmploymentDetails{}, err
	}

	details, errs := s.validator.Employment(payload)
	if len(errs) > 0 {
		return domain.EmploymentDetails{}, errors.Validation(validation.First(errs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	employment, err := s.store.LoadEmployment(ctx)
	if err != nil {
		return domain.EmploymentDetails{}, err
	}
	employment[id] = details
	if err := s.store.SaveEmployment(ctx, employment); err != nil {
		return domain.EmploymentDetails{}, storageError(err, "failed to store employment details", id)
	}

	s.logger.Info().Int64("employee_id", id).Msg("employment details stored")
	s.publisher.PublishEmploymentStored(ctx, id)

	return details, nil
}

// GetCombinedDetails looks up both side-table entries for id independently.
// The employee itself is not required to exist.
func (s *DirectoryService) GetCombinedDetails(ctx context.Context, id int64) (domain.CombinedDetails, error) {
	var out domain.CombinedDetails

	personal, err := s.store.LoadPersonal(ctx)
	if err != nil {
		return out, err
	}
	if d, ok := personal[id]; ok {
		out.Personal = &d
	}

	employment, err := s.store.LoadEmployment(ctx)
	if err != nil {
		return out, err
	}
	if d, ok := employment[id]; ok {
		out.Employment = &d
	}

	return out, nil
}

// Health reports storage state
func (s *DirectoryService) Health(ctx context.Context) map[string]string {
	return s.store.Health(ctx)
}

func indexOf(employees []domain.Employee, id int64) int {
	for i, e := range employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}
