package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ===== IMPORT =====

// importAssessment is the wire shape of one catalog entry in an import
// document. Retake variants exported as `<slug>_<n>` collapse onto the
// base slug.
type importAssessment struct {
	Slug        string                    `json:"slug"`
	Title       string                    `json:"title"`
	Description *string                   `json:"description"`
	Category    models.AssessmentCategory `json:"category"`
	Mode        models.AssessmentMode     `json:"mode"`
	ScoreScale  models.ScoreScale         `json:"score_scale"`
	MaxAttempts int                       `json:"max_attempts"`
	Questions   []importQuestion          `json:"questions"`
}

type importQuestion struct {
	Type    models.QuestionType `json:"type"`
	Prompt  string              `json:"prompt"`
	Order   int                 `json:"order"`
	Points  int                 `json:"points"`
	Content json.RawMessage     `json:"content"`
	// Model marks the survey question whose answer value feeds the
	// career prediction features.
	Model bool `json:"model"`
}

var attemptSuffixPattern = regexp.MustCompile(`_[0-9]+$`)

func (s *importExportService) ImportAssessments(ctx context.Context, r io.Reader, req *models.ImportAssessmentsRequest, userID string) (*models.ImportAssessmentsResult, error) {
	s.logger.Info("Importing assessments", "user_id", userID, "validate_only", req.ValidateOnly)

	var items []importAssessment
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: invalid import document: %s", ErrValidationFailed, err.Error())
	}

	result := &models.ImportAssessmentsResult{Errors: []models.ImportValidationError{}}

	for i := range items {
		item := &items[i]
		slug := baseSlug(item.Slug)

		if errs := validateImportItem(slug, item); len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			result.Skipped++
			continue
		}

		if req.ValidateOnly {
			result.Imported++
			continue
		}

		created, err := s.importOne(ctx, slug, item, req.Overwrite, userID)
		if err != nil {
			if err == errImportSkipped {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, models.ImportValidationError{
				Slug:    slug,
				Field:   "",
				Message: err.Error(),
			})
			result.Skipped++
			continue
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
	}

	result.FinishedAt = time.Now()
	s.logger.Info("Import finished",
		"imported", result.Imported,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors))

	return result, nil
}

var errImportSkipped = fmt.Errorf("skipped")

func (s *importExportService) importOne(ctx context.Context, slug string, item *importAssessment, overwrite bool, userID string) (created bool, err error) {
	exists, err := s.repo.Assessment().ExistsBySlug(ctx, nil, slug, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists && !overwrite {
		return false, errImportSkipped
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		assessment := &models.Assessment{
			Slug:        slug,
			Title:       item.Title,
			Description: item.Description,
			Category:    item.Category,
			Mode:        item.Mode,
			ScoreScale:  item.ScoreScale,
			Status:      models.StatusActive,
			MaxAttempts: item.MaxAttempts,
			CreatedBy:   userID,
		}
		if assessment.Mode == "" {
			assessment.Mode = models.ModeScored
		}
		if assessment.ScoreScale == "" {
			assessment.ScoreScale = models.ScalePercent
		}
		if assessment.MaxAttempts == 0 {
			assessment.MaxAttempts = 2
		}

		wasCreated, err := txRepo.Assessment().UpsertBySlug(ctx, nil, assessment)
		if err != nil {
			return fmt.Errorf("failed to upsert assessment: %w", err)
		}
		created = wasCreated

		// Imports replace the question set wholesale.
		if err := txRepo.Question().DeleteByAssessment(ctx, nil, assessment.ID); err != nil {
			return fmt.Errorf("failed to clear questions: %w", err)
		}

		questions := make([]*models.Question, len(item.Questions))
		modelIndex := -1
		for qi, q := range item.Questions {
			questions[qi] = &models.Question{
				AssessmentID: assessment.ID,
				Type:         q.Type,
				Prompt:       q.Prompt,
				Order:        q.Order,
				Points:       q.Points,
				Content:      datatypes.JSON(q.Content),
			}
			if questions[qi].Points == 0 {
				questions[qi].Points = 10
			}
			if q.Model {
				modelIndex = qi
			}
		}
		if len(questions) > 0 {
			if err := txRepo.Question().CreateBatch(ctx, nil, questions); err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}

		if modelIndex >= 0 {
			assessment.ModelQuestionID = &questions[modelIndex].ID
			if err := txRepo.Assessment().Update(ctx, nil, assessment); err != nil {
				return fmt.Errorf("failed to set model question: %w", err)
			}
		}

		return nil
	})
	return created, err
}

// baseSlug collapses an exported retake variant onto its base catalog
// slug: a trailing `_<integer>` is the attempt marker, and underscores
// normalize to hyphens.
func baseSlug(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	slug = attemptSuffixPattern.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(slug, "_", "-")
	return slug
}

func validateImportItem(slug string, item *importAssessment) []models.ImportValidationError {
	var errs []models.ImportValidationError
	add := func(field, message string) {
		errs = append(errs, models.ImportValidationError{Slug: slug, Field: field, Message: message})
	}

	if slug == "" {
		add("slug", "slug is required")
	}
	if strings.TrimSpace(item.Title) == "" {
		add("title", "title is required")
	}
	if !item.Category.Valid() {
		add("category", "category must be academic, technical or personal")
	}
	if item.Mode != "" && item.Mode != models.ModeScored && item.Mode != models.ModeSurvey {
		add("mode", "mode must be scored or survey")
	}
	if item.ScoreScale != "" && item.ScoreScale != models.ScalePercent && item.ScoreScale != models.ScaleOrdinal9 {
		add("score_scale", "score scale must be percent or ordinal9")
	}
	if item.MaxAttempts < 0 || item.MaxAttempts > 10 {
		add("max_attempts", "max attempts must be between 0 and 10")
	}

	modelCount := 0
	for qi, q := range item.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			add(fmt.Sprintf("questions[%d].prompt", qi), "prompt is required")
		}
		switch q.Type {
		case models.SingleChoice, models.MultiChoice, models.FreeText:
		default:
			add(fmt.Sprintf("questions[%d].type", qi), "unknown question type")
		}
		if q.Model {
			modelCount++
		}
	}
	if modelCount > 1 {
		add("questions", "at most one question can be marked as the model question")
	}

	return errs
}

// ===== EXPORT =====

const exportSheet = "Results"

var exportHeader = []string{
	"Student ID", "Assessment", "Category", "Attempt", "Status",
	"Score", "Score Scale", "Model Value", "Started At", "Completed At",
}

func (s *importExportService) ExportResults(ctx context.Context, params *models.ExportResultsParams, userID string) (*excelize.File, error) {
	s.logger.Info("Exporting results", "user_id", userID, "assessment_slug", params.AssessmentSlug)

	filters := repositories.ResultFilters{
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
		SortBy:    "completed_at",
		SortOrder: "desc",
	}

	if params.AssessmentSlug != "" {
		assessment, err := s.repo.Assessment().GetBySlug(ctx, nil, params.AssessmentSlug)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrAssessmentNotFound
			}
			return nil, fmt.Errorf("failed to resolve assessment: %w", err)
		}
		filters.AssessmentID = &assessment.ID
	}
	if params.Category != "" {
		category := models.AssessmentCategory(params.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidationFailed, params.Category)
		}
		filters.Category = &category
	}

	results, _, err := s.repo.Result().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), exportSheet)

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(exportSheet, cell, title)
	}

	for row, result := range results {
		values := []interface{}{
			result.StudentID,
			result.AssessmentSlug,
			string(result.Category),
			result.AttemptNumber,
			string(result.Status),
			result.Score,
			string(result.ScoreScale),
			stringOrEmpty(result.ModelValue),
			timeOrEmpty(result.StartedAt),
			timeOrEmpty(result.CompletedAt),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(exportSheet, cell, value)
		}
	}

	return f, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
