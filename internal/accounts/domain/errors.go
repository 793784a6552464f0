package domain

import "errors"

var (
	ErrNotFound          = errors.New("document_not_found")
	ErrClientNotFound    = errors.New("client_not_found")
	ErrInvalidID         = errors.New("invalid_document_id")
	ErrInvalidClientID   = errors.New("invalid_client_id")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrInvalidFramework  = errors.New("invalid_framework")
	ErrInvalidSectionKey = errors.New("invalid_section_key")
	ErrDocumentLocked    = errors.New("document_locked")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrNotReady          = errors.New("document_not_ready")
	ErrNotLocked         = errors.New("document_not_locked")
	ErrOutputsMissing    = errors.New("outputs_missing")
	ErrCalculatedField   = errors.New("calculated_field_not_writable")
	ErrFrameworkLocked   = errors.New("framework_locked")
	ErrSectionInvalid    = errors.New("section_validation_failed")
)

// SectionValidationError rejects a section write and carries every
// finding at once.
type SectionValidationError struct {
	Findings []ValidationError
}

func (e *SectionValidationError) Error() string {
	if len(e.Findings) == 1 {
		return "section validation failed: " + e.Findings[0].Message
	}
	return "section validation failed"
}

func (e *SectionValidationError) Unwrap() error { return ErrSectionInvalid }
