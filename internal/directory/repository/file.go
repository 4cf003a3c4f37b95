package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/staffdir/staffdir-backend/internal/directory/domain"
	"github.com/staffdir/staffdir-backend/pkg/logger"
)

// File names inside the data directory
const (
	EmployeeFile   = "employee.json"
	PersonalFile   = "personalData.json"
	EmploymentFile = "employmentData.json"
)

// FileStore keeps each collection in its own JSON document. Unreadable or
// corrupt documents load as empty collections.
type FileStore struct {
	dir    string
	logger *logger.Logger

	// one lock per document; guards physical I/O only
	mu map[string]*sync.Mutex
}

// NewFileStore creates a file store rooted at dir, creating the directory if needed
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStore{
		dir:    dir,
		logger: log.WithComponent("file-store"),
		mu: map[string]*sync.Mutex{
			EmployeeFile:   {},
			PersonalFile:   {},
			EmploymentFile: {},
		},
	}, nil
}

// LoadEmployees reads the employee array. Null entries left by older
// deletions are skipped.
func (s *FileStore) LoadEmployees(ctx context.Context) ([]domain.Employee, error) {
	var raw []*domain.Employee
	if !s.read(EmployeeFile, &raw) {
		return []domain.Employee{}, nil
	}

	employees := make([]domain.Employee, 0, len(raw))
	for _, e := range raw {
		if e != nil {
			employees = append(employees, *e)
		}
	}
	return employees, nil
}

// SaveEmployees replaces the employee array
func (s *FileStore) SaveEmployees(ctx context.Context, employees []domain.Employee) error {
	if employees == nil {
		employees = []domain.Employee{}
	}
	return s.write(EmployeeFile, employees)
}

// LoadPersonal reads the personal details object keyed by employee id
func (s *FileStore) LoadPersonal(ctx context.Context) (map[int64]domain.PersonalDetails, error) {
	var raw map[string]*domain.PersonalDetails
	if !s.read(PersonalFile, &raw) {
		return map[int64]domain.PersonalDetails{}, nil
	}
	return decodeKeyed(raw, s.logger, PersonalFile), nil
}

// SavePersonal replaces the personal details object
func (s *FileStore) SavePersonal(ctx context.Context, details map[int64]domain.PersonalDetails) error {
	return s.write(PersonalFile, encodeKeyed(details))
}

// LoadEmployment reads the employment details object keyed by employee id
func (s *FileStore) LoadEmployment(ctx context.Context) (map[int64]domain.EmploymentDetails, error) {
	var raw map[string]*domain.EmploymentDetails
	if !s.read(EmploymentFile, &raw) {
		return map[int64]domain.EmploymentDetails{}, nil
	}
	return decodeKeyed(raw, s.logger, EmploymentFile), nil
}

// SaveEmployment replaces the employment details object
func (s *FileStore) SaveEmployment(ctx context.Context, details map[int64]domain.EmploymentDetails) error {
	return s.write(EmploymentFile, encodeKeyed(details))
}

// Health reports whether the data directory is writable
func (s *FileStore) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
		"driver": "file",
	}

	f, err := os.CreateTemp(s.dir, ".health-*")
	if err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}
	f.Close()
	os.Remove(f.Name())

	return status
}

func (s *FileStore) read(name string, v any) bool {
	lock := s.mu[name]
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("file", name).Msg("unreadable data file, treating as empty")
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("file", name).Msg("corrupt data file, treating as empty")
		return false
	}
	return true
}

// write replaces the document through a temp file and rename so readers
// never observe a partially written file.
func (s *FileStore) write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	lock := s.mu[name]
	lock.Lock()
	defer lock.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func decodeKeyed[T any](raw map[string]*T, log *logger.Logger, file string) map[int64]T {
	out := make(map[int64]T, len(raw))
	for key, v := range raw {
		if v == nil {
			continue
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Warn().Str("file", file).Str("key", key).Msg("skipping entry with non numeric key")
			continue
		}
		out[id] = *v
	}
	return out
}

func encodeKeyed[T any](in map[int64]T) map[string]T {
	out := make(map[string]T, len(in))
	for id, v := range in {
		out[strconv.FormatInt(id, 10)] = v
	}
	return out
}
