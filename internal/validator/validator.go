package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validator wraps go-playground struct validation with the custom rules
// used by request DTOs.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	v := &Validator{validate: validate}
	v.registerRules()

	return v
}

// Validate validates a struct and returns structured field errors.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Struct exposes the raw validation error for callers that only need
// pass/fail semantics.
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

func (v *Validator) registerRules() {
	// Slug validation (lowercase, digits, single hyphens)
	v.validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		slug := fl.Field().String()
		return len(slug) <= 100 && slugPattern.MatchString(slug)
	})

	// Category validation
	v.validate.RegisterValidation("assessment_category", func(fl validator.FieldLevel) bool {
		return models.AssessmentCategory(fl.Field().String()).Valid()
	})

	// Mode validation
	v.validate.RegisterValidation("assessment_mode", func(fl validator.FieldLevel) bool {
		mode := models.AssessmentMode(fl.Field().String())
		return mode == models.ModeScored || mode == models.ModeSurvey
	})

	// Score scale validation
	v.validate.RegisterValidation("score_scale", func(fl validator.FieldLevel) bool {
		scale := models.ScoreScale(fl.Field().String())
		return scale == models.ScalePercent || scale == models.ScaleOrdinal9
	})

	// Question type validation
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		qType := models.QuestionType(fl.Field().String())
		return qType == models.SingleChoice || qType == models.MultiChoice || qType == models.FreeText
	})
}

// ===== Validation Errors =====

// ValidationError describes a single failed field rule.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field errors for one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any field failed validation.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ToValidationErrors converts go-playground errors into the structured form.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "request",
			Message: err.Error(),
			Rule:    "invalid",
		}}
	}

	errors := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		errors = append(errors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageForTag(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "slug":
		return "must be a lowercase slug (letters, digits, hyphens)"
	case "assessment_category":
		return "must be a valid category (academic, technical, personal)"
	case "assessment_mode":
		return "must be a valid mode (scored, survey)"
	case "score_scale":
		return "must be a valid score scale (percent, ordinal9)"
	case "question_type":
		return "must be a valid question type"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
