// =============================================================================
// Registration Report - Record Validation
// =============================================================================
//
// This module validates a new registration record before it is appended to
// the source. Input is a set of KEY=VALUE pairs typed by a user, so keys go
// through the same alias table as fetched records.
//
// VALIDATION RULES:
//   Field-level:
//   1. Every key must resolve to a declared field (unknown keys are warnings,
//      or errors with RejectUnknown)
//   2. A field may be given only once
//   3. Required fields must be non-empty
//   4. Int fields must hold a non-negative whole number ("1,250" is allowed)
//   5. Date fields must parse with the configured layouts
//   Row-level:
//   6. Optional sum check: the total field equals the sum of its parts
//      (warning only, sheets are often filled in before totals are known)
//
// ERROR HANDLING:
//   - Errors are collected, not returned at the first failure
//   - Warnings never block the record
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/normalizer"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError (record rejected) or SeverityWarning.
	Severity string

	// Field is the canonical field, or the raw key when it did not resolve.
	Field string

	// Value is the offending input value.
	Value string

	// Rule is the violated rule: unknown_field, duplicate_field, required,
	// numeric, date, sum.
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Field,
		e.Message,
		e.Value,
	)
}

// Errors is the list of fatal findings for a rejected record.
type Errors []*ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid record: " + strings.Join(msgs, "; ")
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the outcome of validating one record.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included, in field order.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// Record is the input keyed by canonical field name, with values trimmed.
	// Unknown keys are carried over unchanged unless RejectUnknown is set.
	Record types.RawRecord
}

// Err returns the fatal findings as Errors, or nil when the record is valid.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	var errs Errors
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			errs = append(errs, e)
		}
	}
	return errs
}

// Warnings returns the non-fatal findings.
func (r *ValidationResult) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// SumCheck declares that Total should equal the sum of Parts.
type SumCheck struct {
	Total string
	Parts []string
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// RejectUnknown turns unknown keys into errors.
	// Default: false
	RejectUnknown bool

	// SumCheck enables the row-level total check when non-nil.
	SumCheck *SumCheck
}

// Validator checks new records against the field declarations.
type Validator struct {
	fields  []config.Field
	norm    *normalizer.Normalizer
	options ValidationOptions
}

// NewValidator creates a Validator using the normalizer's alias table and
// date layouts.
func NewValidator(fields []config.Field, norm *normalizer.Normalizer, options ValidationOptions) *Validator {
	return &Validator{fields: fields, norm: norm, options: options}
}

// DefaultSumCheck returns the participant total check when every field it
// needs is declared.
func DefaultSumCheck(cfg *config.Config) *SumCheck {
	check := &SumCheck{
		Total: config.FieldTotal,
		Parts: []string{config.FieldGroupA, config.FieldGroupB, config.FieldGroupC, config.FieldGroupD},
	}
	for _, name := range append([]string{check.Total}, check.Parts...) {
		if f, ok := cfg.FieldByName(name); !ok || f.Type != types.FieldInt {
			return nil
		}
	}
	return check
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateRecord validates KEY=VALUE input for a new record.
func (v *Validator) ValidateRecord(input map[string]string) *ValidationResult {
	result := &ValidationResult{IsValid: true, Record: types.RawRecord{}}

	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]string, len(v.fields))
	for _, key := range keys {
		value := strings.TrimSpace(input[key])

		field, ok := v.norm.Resolve(key)
		if !ok {
			severity := SeverityWarning
			if v.options.RejectUnknown {
				severity = SeverityError
			} else {
				result.Record[key] = value
			}
			result.add(&ValidationError{
				Severity: severity,
				Field:    key,
				Value:    value,
				Rule:     "unknown_field",
				Message:  "Key does not match any declared field",
			})
			continue
		}

		if _, dup := values[field]; dup {
			result.add(&ValidationError{
				Severity: SeverityError,
				Field:    field,
				Value:    value,
				Rule:     "duplicate_field",
				Message:  fmt.Sprintf("Field given more than once (also as '%s')", key),
			})
			continue
		}
		values[field] = value
		result.Record[field] = value
	}

	for _, f := range v.fields {
		value := values[f.Name]
		if rule, msg := v.validateField(f, value); msg != "" {
			result.add(&ValidationError{
				Severity: SeverityError,
				Field:    f.Name,
				Value:    value,
				Rule:     rule,
				Message:  msg,
			})
		}
	}

	if result.IsValid && v.options.SumCheck != nil {
		v.checkSum(values, result)
	}
	return result
}

// validateField returns the violated rule and a message, or an empty message
// when the value is valid.
func (v *Validator) validateField(f config.Field, value string) (string, string) {
	if value == "" {
		if f.Required {
			return "required", "Required field is empty"
		}
		return "", ""
	}

	switch f.Type {
	case types.FieldInt:
		return "numeric", validateCount(value)
	case types.FieldDate:
		if v.norm.ParseDate(value).IsEmpty() {
			return "date", fmt.Sprintf("Value '%s' is not a recognized date", value)
		}
	}
	return "", ""
}

// validateCount validates a participant count.
func validateCount(value string) string {
	n, err := strconv.ParseInt(strings.ReplaceAll(value, ",", ""), 10, 64)
	if err != nil {
		return fmt.Sprintf("Value '%s' is not a valid integer", value)
	}
	if n < 0 {
		return fmt.Sprintf("Value '%s' is negative", value)
	}
	return ""
}

// checkSum adds a warning when the total differs from the sum of its parts.
// It is skipped when the total was not given.
func (v *Validator) checkSum(values map[string]string, result *ValidationResult) {
	check := v.options.SumCheck
	totalText := values[check.Total]
	if totalText == "" {
		return
	}

	parse := func(s string) int64 {
		n, _ := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
		return n
	}

	var sum int64
	for _, p := range check.Parts {
		sum += parse(values[p])
	}
	if total := parse(totalText); total != sum {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Field:    check.Total,
			Value:    totalText,
			Rule:     "sum",
			Message:  fmt.Sprintf("Total does not match the sum of %s (%d)", strings.Join(check.Parts, ", "), sum),
		})
	}
}
