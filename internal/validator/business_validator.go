package validator

import (
	"fmt"

	"github.com/devpath-io/devpath-service/internal/models"
)

// BusinessValidator handles domain rule validation that depends on
// current state rather than request shape.
type BusinessValidator struct {
	validator *Validator
}

// NewBusinessValidator creates a new business validator.
func NewBusinessValidator(v *Validator) *BusinessValidator {
	return &BusinessValidator{validator: v}
}

// ValidateAttemptStart checks the conditions for starting a new attempt.
// Only completed attempts count against the limit.
func (bv *BusinessValidator) ValidateAttemptStart(status models.AssessmentStatus, completedCount, maxAttempts int) ValidationErrors {
	var errors ValidationErrors

	if status != models.StatusActive {
		errors = append(errors, ValidationError{
			Field:   "assessment_status",
			Message: "assessment is not active",
			Value:   status,
			Rule:    "business_logic",
		})
	}

	if maxAttempts > 0 && completedCount >= maxAttempts {
		errors = append(errors, ValidationError{
			Field:   "attempts",
			Message: "maximum attempts reached",
			Value:   completedCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateSubmission checks that every question in the attempt has an answer.
func (bv *BusinessValidator) ValidateSubmission(questionCount, answeredCount int) ValidationErrors {
	var errors ValidationErrors

	if answeredCount < questionCount {
		errors = append(errors, ValidationError{
			Field:   "answers",
			Message: fmt.Sprintf("%d questions are unanswered", questionCount-answeredCount),
			Value:   questionCount - answeredCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateStatusTransition validates assessment lifecycle transitions.
func (bv *BusinessValidator) ValidateStatusTransition(currentStatus, newStatus models.AssessmentStatus, questionCount int) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.AssessmentStatus][]models.AssessmentStatus{
		models.StatusDraft:    {models.StatusActive, models.StatusArchived},
		models.StatusActive:   {models.StatusArchived},
		models.StatusArchived: {models.StatusActive},
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	// Publishing requires at least one question
	if newStatus == models.StatusActive && questionCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "assessment must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateDeletePermission validates whether an assessment can be deleted.
func (bv *BusinessValidator) ValidateDeletePermission(hasResults bool, status models.AssessmentStatus) ValidationErrors {
	var errors ValidationErrors

	if hasResults {
		errors = append(errors, ValidationError{
			Field:   "results",
			Message: "cannot delete assessment with recorded attempts",
			Value:   hasResults,
			Rule:    "business_logic",
		})
	}

	if status == models.StatusActive {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "cannot delete active assessment",
			Value:   status,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateSurveyModel checks that a survey assessment designates a model
// question that actually belongs to it.
func (bv *BusinessValidator) ValidateSurveyModel(mode models.AssessmentMode, modelQuestionID *uint, questionIDs []uint) ValidationErrors {
	var errors ValidationErrors

	if mode != models.ModeSurvey || modelQuestionID == nil {
		return errors
	}

	found := false
	for _, id := range questionIDs {
		if id == *modelQuestionID {
			found = true
			break
		}
	}
	if !found {
		errors = append(errors, ValidationError{
			Field:   "model_question_id",
			Message: "model question does not belong to this assessment",
			Value:   *modelQuestionID,
			Rule:    "business_logic",
		})
	}

	return errors
}
