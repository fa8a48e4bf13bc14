package ledger

import "errors"

// Business-rule errors surfaced by ledger operations. Handlers map these to
// the 400/404 response envelope.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrCapacityExceeded indicates the scheme has no remaining member slots.
	ErrCapacityExceeded = errors.New("scheme capacity exceeded")
	// ErrAlreadyEnrolled indicates the (customer, scheme) pair is already enrolled.
	ErrAlreadyEnrolled = errors.New("customer already enrolled in scheme")
	// ErrHasDependents indicates collections or passbook entries reference the enrollment.
	ErrHasDependents = errors.New("enrollment has dependent records")
	// ErrInvalidMember indicates the auction winner is not enrolled in the scheme.
	ErrInvalidMember = errors.New("winner is not enrolled in scheme")
	// ErrCompleted indicates a completed record cannot be deleted.
	ErrCompleted = errors.New("completed records cannot be deleted")
	// ErrGeneratedEntry indicates a generated passbook entry is read-only.
	ErrGeneratedEntry = errors.New("generated passbook entries are read-only")
	// ErrDuplicateManualEntry indicates a manual entry already exists for the month.
	ErrDuplicateManualEntry = errors.New("manual passbook entry already exists for month")
	// ErrAmbiguousEnrollment indicates a collection needs an explicit enrollment.
	ErrAmbiguousEnrollment = errors.New("customer has multiple active enrollments")
)
