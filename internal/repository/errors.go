package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("repository: duplicate record")
	// ErrStaleState reports a conditional update that matched no row in the expected state.
	ErrStaleState = errors.New("repository: record not in expected state")
	// ErrReferenced reports a delete blocked by rows that still point at the record.
	ErrReferenced = errors.New("repository: record still referenced")
)

// EvidenceAttachedError reports a re-rate that would drop an objective still
// carrying MOV evidence on the submission.
type EvidenceAttachedError struct {
	ObjectiveID string
}

func (e *EvidenceAttachedError) Error() string {
	return fmt.Sprintf("repository: objective %s still has evidence attached", e.ObjectiveID)
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// isForeignKeyViolation reports whether err is a postgres foreign key error.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
