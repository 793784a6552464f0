// Package validate checks section payloads and whole documents against
// their schemas and the statutory accounts business rules. Findings are
// collected exhaustively and returned as data; a finding is never a Go
// error.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
)

// Result is the outcome of validating one section.
type Result struct {
	Errors   []domain.ValidationError `json:"errors"`
	Warnings []domain.ValidationError `json:"warnings"`
}

func (r Result) Valid() bool { return len(r.Errors) == 0 }

type Validator struct {
	schema *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{schema: v}
}

// Section validates raw payload bytes for the given key against the
// section schema, then against the business rules. The decoded payload
// is returned for storage when the schema layer passes; business-rule
// findings never prevent decoding.
func (v *Validator) Section(key domain.SectionKey, raw []byte, doc *domain.AccountsDocument) (domain.Section, Result) {
	payload := newSectionPayload(key)
	if payload == nil {
		return nil, Result{Errors: []domain.ValidationError{{
			Field:   string(key),
			Message: fmt.Sprintf("unrecognized section %q", key),
			Code:    CodeSchemaValidation,
			Section: key,
		}}}
	}

	schemaErrs := v.decodeStrict(key, raw, payload)
	if len(schemaErrs) > 0 {
		return nil, Result{Errors: schemaErrs}
	}
	schemaErrs = v.structErrors(key, payload)

	result := rulesFor(key, payload, doc)
	result.Errors = append(schemaErrs, result.Errors...)
	return payload, result
}

func newSectionPayload(key domain.SectionKey) domain.Section {
	switch key {
	case domain.SectionCompanyPeriod:
		return &domain.CompanyPeriodSection{}
	case domain.SectionFrameworkDisclosures:
		return &domain.FrameworkDisclosuresSection{}
	case domain.SectionAccountingPolicies:
		return &domain.AccountingPoliciesSection{}
	case domain.SectionProfitAndLoss:
		return &domain.ProfitAndLossSection{}
	case domain.SectionBalanceSheet:
		return &domain.BalanceSheetSection{}
	case domain.SectionNotes:
		return &domain.NotesSection{}
	case domain.SectionDirectorsApproval:
		return &domain.DirectorsApprovalSection{}
	}
	return nil
}

// sectionFields maps each section to its recognized top-level wire
// names, derived from the payload struct tags once at startup.
var sectionFields = func() map[domain.SectionKey]map[string]bool {
	fields := make(map[domain.SectionKey]map[string]bool, len(domain.SectionKeys))
	for _, key := range domain.SectionKeys {
		set := make(map[string]bool)
		t := reflect.TypeOf(newSectionPayload(key)).Elem()
		for i := 0; i < t.NumField(); i++ {
			name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
			if name != "" && name != "-" {
				set[name] = true
			}
		}
		fields[key] = set
	}
	return fields
}()

func (v *Validator) decodeStrict(key domain.SectionKey, raw []byte, payload domain.Section) []domain.ValidationError {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []domain.ValidationError{{
			Field:   string(key),
			Message: "section payload is required",
			Code:    CodeSchemaValidation,
			Section: key,
		}}
	}

	// Surface every unrecognized top-level field at once before the
	// strict decode stops at the first one.
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return []domain.ValidationError{{
			Field:   string(key),
			Message: "section payload must be a JSON object",
			Code:    CodeSchemaValidation,
			Section: key,
		}}
	}
	var errs []domain.ValidationError
	allowed := sectionFields[key]
	for name := range shape {
		if !allowed[name] {
			errs = append(errs, domain.ValidationError{
				Field:   name,
				Message: fmt.Sprintf("unexpected field %q", name),
				Code:    CodeSchemaValidation,
				Section: key,
			})
		}
	}
	if len(errs) > 0 {
		sortFindings(errs)
		return errs
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return []domain.ValidationError{decodeError(key, err)}
	}
	return nil
}

func sortFindings(findings []domain.ValidationError) {
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].Field < findings[j].Field
	})
}

func decodeError(key domain.SectionKey, err error) domain.ValidationError {
	finding := domain.ValidationError{
		Field:   string(key),
		Message: "invalid section payload",
		Code:    CodeSchemaValidation,
		Section: key,
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		finding.Field = typeErr.Field
		if finding.Field == "" {
			finding.Field = string(key)
		}
		finding.Message = fmt.Sprintf("must be a %s", typeErr.Type.Kind())
	case strings.Contains(err.Error(), "unknown field"):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		finding.Field = name
		finding.Message = fmt.Sprintf("unexpected field %q", name)
	default:
		finding.Message = err.Error()
	}
	return finding
}

func (v *Validator) structErrors(key domain.SectionKey, payload domain.Section) []domain.ValidationError {
	err := v.schema.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []domain.ValidationError{{
			Field:   string(key),
			Message: err.Error(),
			Code:    CodeSchemaValidation,
			Section: key,
		}}
	}

	findings := make([]domain.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		findings = append(findings, domain.ValidationError{
			Field:   fieldPath(fe),
			Message: tagMessage(fe),
			Code:    CodeSchemaValidation,
			Section: key,
		})
	}
	return findings
}

// fieldPath strips the payload type name from the namespace, leaving the
// json path ("lines.turnover").
func fieldPath(fe validator.FieldError) string {
	parts := strings.SplitN(fe.Namespace(), ".", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
