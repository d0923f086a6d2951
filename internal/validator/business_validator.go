package validator

import (
	"strings"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

// BusinessValidator checks rules that depend on more than one field or on
// stored state, after the struct tags have passed.
type BusinessValidator struct {
	*Validator
}

func NewBusinessValidator(v *Validator) *BusinessValidator {
	if v == nil {
		v = New()
	}
	return &BusinessValidator{Validator: v}
}

// ValidateRegister runs the tag rules and rejects blank-after-trim names.
func (bv *BusinessValidator) ValidateRegister(req *models.RegisterRequest) error {
	var errs ValidationErrors
	if err := bv.Validate(req); err != nil {
		errs = append(errs, ToValidationErrors(err)...)
	}
	if req.FullName != "" && strings.TrimSpace(req.FullName) == "" {
		errs = append(errs, ValidationError{Field: "full_name", Message: "must not be blank", Rule: "business_logic"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateJobCreate requires at least one subject after splitting.
func (bv *BusinessValidator) ValidateJobCreate(req *models.JobCreateRequest) error {
	var errs ValidationErrors
	if err := bv.Validate(req); err != nil {
		errs = append(errs, ToValidationErrors(err)...)
	}
	if len(errs) == 0 && len(models.SplitSubjects(req.Subjects))+len(models.SplitSubjects(strings.Join(req.SubjectList, ","))) == 0 {
		errs = append(errs, ValidationError{Field: "subjects", Message: "must name at least one subject", Rule: "business_logic"})
	}
	if strings.TrimSpace(req.Title) == "" && req.Title != "" {
		errs = append(errs, ValidationError{Field: "title", Message: "must not be blank", Rule: "business_logic"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CanTransitionJob reports whether a job may move from current to next.
// Terminal statuses never change; everything else is allowed.
func CanTransitionJob(current, next models.JobStatus) bool {
	if current.IsTerminal() {
		return false
	}
	return next.IsValid()
}
