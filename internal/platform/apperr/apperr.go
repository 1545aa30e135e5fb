package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ParseError reports a failure to parse a single object file. Extraction
// recovers from it locally; it never aborts a package.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractionFailure reports a package-level failure (corrupt archive, missing
// manifest). Fatal for the whole merge session.
type ExtractionFailure struct {
	PackageRole string
	Reason      string
	Err         error
}

func (e *ExtractionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s package: %s: %v", e.PackageRole, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s package: %s", e.PackageRole, e.Reason)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// ComparisonFailure reports a type-specific differ breaking on an unexpected
// object shape. Recovered locally by a generic comparison record.
type ComparisonFailure struct {
	ObjectUUID string
	ObjectType string
	Err        error
}

func (e *ComparisonFailure) Error() string {
	return fmt.Sprintf("compare %s object %s: %v", e.ObjectType, e.ObjectUUID, e.Err)
}

func (e *ComparisonFailure) Unwrap() error { return e.Err }

// ClassificationError means the decision table was handed a tuple outside its
// defined rows. A logic defect: it is never recovered.
type ClassificationError struct {
	VendorCategory   string
	ExistsInCustomer bool
	CustomerModified bool
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("no classification rule for (vendor=%s, exists_in_customer=%t, customer_modified=%t)",
		e.VendorCategory, e.ExistsInCustomer, e.CustomerModified)
}

// IsUniqueViolation reports whether err is a unique-constraint violation from
// the storage layer. Postgres surfaces SQLSTATE 23505 through pgconn; gorm and
// sqlite are matched by sentinel and message so the retry path behaves the
// same everywhere, including the test suite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.TrimSpace(pgErr.Code) == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
