package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"budgetwatch/internal/core"
)

// DataAccessError wraps a driver failure with the operation that hit it.
// It matches core.ErrDataAccess with errors.Is.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func (e *DataAccessError) Is(target error) bool {
	return target == core.ErrDataAccess
}

// wrapErr maps driver errors onto domain errors where one applies and wraps
// everything else in a *DataAccessError.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateName)
	case isForeignKeyErr(err):
		return fmt.Errorf("%s: %w", op, core.ErrMissingCategory)
	}
	return &DataAccessError{Op: op, Err: err}
}

func isForeignKeyErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
