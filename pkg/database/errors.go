package database

import (
	"fmt"

	"github.com/lib/pq"
)

// Explain prefixes a PostgreSQL error with its condition name and the
// constraint or column involved. Other errors are returned unchanged.
func Explain(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}

	switch {
	case pqErr.Constraint != "":
		return fmt.Errorf("%s on %s: %w", pqErr.Code.Name(), pqErr.Constraint, err)
	case pqErr.Column != "":
		return fmt.Errorf("%s on column %s: %w", pqErr.Code.Name(), pqErr.Column, err)
	default:
		return fmt.Errorf("%s: %w", pqErr.Code.Name(), err)
	}
}
