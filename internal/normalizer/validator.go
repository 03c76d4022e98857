package normalizer

import (
	"errors"
	"fmt"
	"time"

	"msupdates/internal/models"
	"msupdates/pkg/utils"
)

// Validation errors.
var (
	ErrMissingDate           = errors.New("record missing date")
	ErrInvalidDate           = errors.New("record date is not an ISO calendar date")
	ErrMissingIdentifier     = errors.New("record missing identifier")
	ErrInvalidIdentifier     = errors.New("record identifier is neither an update id nor the document id")
	ErrMissingProduct        = errors.New("record missing product")
	ErrInvalidClassification = errors.New("record classification is unknown")
	ErrMissingSummary        = errors.New("record missing summary")
	ErrMissingNote           = errors.New("record missing remediation note")
	ErrInvalidLink           = errors.New("record link is not an absolute URL")
	ErrMissingSeverity       = errors.New("record missing severity")
)

// Validator checks records against the output invariants.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that every field of r is set and that its identifier is either
// a KB<digits> update id or documentID.
func (v *Validator) Validate(r models.Record, documentID string) error {
	if r.Date == "" {
		return ErrMissingDate
	}

	if _, err := time.Parse(time.DateOnly, r.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, r.Date)
	}

	if r.Identifier == "" {
		return ErrMissingIdentifier
	}

	if !CanonicalIdentifierPattern.MatchString(r.Identifier) && r.Identifier != documentID {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, r.Identifier)
	}

	if r.Product == "" {
		return ErrMissingProduct
	}

	if _, err := models.ParseClassification(string(r.Classification)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidClassification, r.Classification)
	}

	if r.Summary == "" {
		return ErrMissingSummary
	}

	if r.RemediationNote == "" {
		return ErrMissingNote
	}

	if !utils.IsValidURL(r.Link) {
		return fmt.Errorf("%w: %q", ErrInvalidLink, r.Link)
	}

	if r.Severity == "" {
		return ErrMissingSeverity
	}

	return nil
}

// ValidateAll validates each record and reports the first failure with its index.
func (v *Validator) ValidateAll(records []models.Record, documentID string) error {
	for i, r := range records {
		if err := v.Validate(r, documentID); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	return nil
}
