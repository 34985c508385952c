package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/validator"
)

func TestBaseSlug(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"math-intro", "math-intro"},
		{"math-intro_2", "math-intro"},
		{"math_intro_13", "math-intro"},
		{"MATH-INTRO", "math-intro"},
		{"  work-values_1  ", "work-values"},
		{"survey_v2_3", "survey-v2"},
		{"plain_name", "plain-name"},
	}

	for _, tt := range tests {
		if got := baseSlug(tt.raw); got != tt.expected {
			t.Errorf("baseSlug(%q) = %q, expected %q", tt.raw, got, tt.expected)
		}
	}
}

func newImportExportServiceForTest(repo *fakeRepository) ImportExportService {
	return NewImportExportService(repo, testLogger(), validator.New())
}

const importDoc = `[
  {
    "slug": "algorithms_2",
    "title": "Algorithms",
    "category": "technical",
    "mode": "scored",
    "questions": [
      {"type": "single_choice", "prompt": "Pick one", "points": 10,
       "content": {"options": [{"id": "a", "label": "A", "correct": true}, {"id": "b", "label": "B"}]}}
    ]
  },
  {
    "slug": "work_values",
    "title": "Work Values",
    "category": "personal",
    "mode": "survey",
    "score_scale": "ordinal9",
    "questions": [
      {"type": "single_choice", "prompt": "What matters most", "model": true,
       "content": {"options": [{"id": "t", "label": "Teamwork", "value": "collaboration"}, {"id": "s", "label": "Solo", "value": "autonomy"}]}}
    ]
  }
]`

func TestImportAssessments(t *testing.T) {
	ctx := context.Background()

	t.Run("retake variants collapse onto the base slug", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newImportExportServiceForTest(repo)

		result, err := svc.ImportAssessments(ctx, strings.NewReader(importDoc), &models.ImportAssessmentsRequest{}, "admin-1")
		if err != nil {
			t.Fatalf("ImportAssessments failed: %v", err)
		}
		if result.Imported != 2 || result.Updated != 0 || result.Skipped != 0 {
			t.Fatalf("Expected 2 imported, got %+v", result)
		}

		if _, err := repo.Assessment().GetBySlug(ctx, nil, "algorithms"); err != nil {
			t.Errorf("Expected slug algorithms after collapsing _2 suffix: %v", err)
		}
		if _, err := repo.Assessment().GetBySlug(ctx, nil, "work-values"); err != nil {
			t.Errorf("Expected underscores normalized to hyphens: %v", err)
		}
	})

	t.Run("imported survey records its model question", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newImportExportServiceForTest(repo)

		if _, err := svc.ImportAssessments(ctx, strings.NewReader(importDoc), &models.ImportAssessmentsRequest{}, "admin-1"); err != nil {
			t.Fatalf("ImportAssessments failed: %v", err)
		}

		survey, err := repo.Assessment().GetBySlug(ctx, nil, "work-values")
		if err != nil {
			t.Fatalf("Survey not imported: %v", err)
		}
		if survey.Status != models.StatusActive {
			t.Errorf("Imported assessments go live, got status %s", survey.Status)
		}
		if survey.ModelQuestionID == nil {
			t.Fatal("Expected the model question to be recorded")
		}
		question, err := repo.Question().GetByID(ctx, nil, *survey.ModelQuestionID)
		if err != nil {
			t.Fatalf("Model question missing: %v", err)
		}
		if question.Prompt != "What matters most" {
			t.Errorf("Wrong model question: %q", question.Prompt)
		}
	})

	t.Run("existing slug is skipped without overwrite", func(t *testing.T) {
		repo := newFakeRepository()
		repo.addAssessment(&models.Assessment{
			Slug: "algorithms", Title: "Old Algorithms",
			Category: models.CategoryTechnical, Status: models.StatusActive,
		})
		svc := newImportExportServiceForTest(repo)

		result, err := svc.ImportAssessments(ctx, strings.NewReader(importDoc), &models.ImportAssessmentsRequest{}, "admin-1")
		if err != nil {
			t.Fatalf("ImportAssessments failed: %v", err)
		}
		if result.Imported != 1 || result.Skipped != 1 {
			t.Fatalf("Expected 1 imported and 1 skipped, got %+v", result)
		}

		existing, _ := repo.Assessment().GetBySlug(ctx, nil, "algorithms")
		if existing.Title != "Old Algorithms" {
			t.Errorf("Existing entry must stay untouched without overwrite, got %q", existing.Title)
		}
	})

	t.Run("overwrite replaces the question set", func(t *testing.T) {
		repo := newFakeRepository()
		old := repo.addAssessment(&models.Assessment{
			Slug: "algorithms", Title: "Old Algorithms",
			Category: models.CategoryTechnical, Status: models.StatusActive,
		})
		repo.addQuestion(&models.Question{AssessmentID: old.ID, Type: models.FreeText, Prompt: "Old question"})
		svc := newImportExportServiceForTest(repo)

		result, err := svc.ImportAssessments(ctx, strings.NewReader(importDoc), &models.ImportAssessmentsRequest{Overwrite: true}, "admin-1")
		if err != nil {
			t.Fatalf("ImportAssessments failed: %v", err)
		}
		if result.Updated != 1 || result.Imported != 1 {
			t.Fatalf("Expected 1 updated and 1 imported, got %+v", result)
		}

		questions, _ := repo.Question().GetByAssessment(ctx, nil, old.ID)
		if len(questions) != 1 || questions[0].Prompt != "Pick one" {
			t.Errorf("Expected the question set replaced wholesale, got %+v", questions)
		}
	})

	t.Run("validate only writes nothing", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newImportExportServiceForTest(repo)

		result, err := svc.ImportAssessments(ctx, strings.NewReader(importDoc), &models.ImportAssessmentsRequest{ValidateOnly: true}, "admin-1")
		if err != nil {
			t.Fatalf("ImportAssessments failed: %v", err)
		}
		if result.Imported != 2 {
			t.Fatalf("Expected 2 valid entries, got %+v", result)
		}
		if len(repo.assessments) != 0 {
			t.Errorf("Validate only must not write, found %d assessments", len(repo.assessments))
		}
	})

	t.Run("invalid entries are reported and skipped", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newImportExportServiceForTest(repo)

		doc := `[{"slug": "broken", "title": "", "category": "mystery",
			"questions": [{"type": "essay", "prompt": ""}]}]`
		result, err := svc.ImportAssessments(ctx, strings.NewReader(doc), &models.ImportAssessmentsRequest{}, "admin-1")
		if err != nil {
			t.Fatalf("ImportAssessments failed: %v", err)
		}
		if result.Skipped != 1 || result.Imported != 0 {
			t.Fatalf("Expected the broken entry skipped, got %+v", result)
		}
		if len(result.Errors) < 3 {
			t.Errorf("Expected errors for title, category and question, got %+v", result.Errors)
		}
	})

	t.Run("two model questions are rejected", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newImportExportServiceForTest(repo)

		doc := `[{"slug": "double-model", "title": "Double", "category": "personal", "mode": "survey",
			"questions": [
				{"type": "single_choice", "prompt": "One", "model": true, "content": {"options": [{"id": "a", "label": "A"}, {"id": "b", "label": "B"}]}},
				{"type": "single_choice", "prompt": "Two", "model": true, "content": {"options": [{"id": "a", "label": "A"}, {"id": "b", "label": "B"}]}}
			]}]`
		result, err := svc.ImportAssessments(ctx, strings.NewReader(doc), &models.ImportAssessmentsRequest{}, "admin-1")
		if err != nil {
			t.Fatalf("ImportAssessments failed: %v", err)
		}
		if result.Skipped != 1 || len(result.Errors) == 0 {
			t.Fatalf("Expected a validation error for the duplicate model flag, got %+v", result)
		}
	})

	t.Run("malformed document fails outright", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newImportExportServiceForTest(repo)

		if _, err := svc.ImportAssessments(ctx, strings.NewReader("{not json"), &models.ImportAssessmentsRequest{}, "admin-1"); err == nil {
			t.Fatal("Expected an error for a malformed document")
		}
	})
}

func TestExportResults(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	assessment := repo.addAssessment(&models.Assessment{
		Slug: "algorithms", Title: "Algorithms",
		Category: models.CategoryTechnical, Status: models.StatusActive,
	})
	now := time.Now()
	repo.addResult(&models.Result{
		AssessmentID: assessment.ID, StudentID: "student-1",
		AssessmentSlug: "algorithms", Category: models.CategoryTechnical,
		AttemptNumber: 1, Status: models.ResultCompleted,
		Score: 85, ScoreScale: models.ScalePercent,
		StartedAt: &now, CompletedAt: &now,
	})
	svc := newImportExportServiceForTest(repo)

	t.Run("workbook carries header and rows", func(t *testing.T) {
		f, err := svc.ExportResults(ctx, &models.ExportResultsParams{AssessmentSlug: "algorithms"}, "advisor-1")
		if err != nil {
			t.Fatalf("ExportResults failed: %v", err)
		}

		header, err := f.GetCellValue(exportSheet, "A1")
		if err != nil {
			t.Fatalf("GetCellValue failed: %v", err)
		}
		if header != "Student ID" {
			t.Errorf("Unexpected header cell %q", header)
		}

		student, _ := f.GetCellValue(exportSheet, "A2")
		if student != "student-1" {
			t.Errorf("Expected student-1 in first data row, got %q", student)
		}
		slugCell, _ := f.GetCellValue(exportSheet, "B2")
		if slugCell != "algorithms" {
			t.Errorf("Expected assessment slug in row, got %q", slugCell)
		}
	})

	t.Run("unknown slug", func(t *testing.T) {
		if _, err := svc.ExportResults(ctx, &models.ExportResultsParams{AssessmentSlug: "missing"}, "advisor-1"); err != ErrAssessmentNotFound {
			t.Fatalf("Expected ErrAssessmentNotFound, got %v", err)
		}
	})

	t.Run("invalid category", func(t *testing.T) {
		_, err := svc.ExportResults(ctx, &models.ExportResultsParams{Category: "mystery"}, "advisor-1")
		if err == nil {
			t.Fatal("Expected an error for an unknown category")
		}
	})

	t.Run("empty catalog still yields a workbook", func(t *testing.T) {
		emptyRepo := newFakeRepository()
		emptySvc := newImportExportServiceForTest(emptyRepo)

		f, err := emptySvc.ExportResults(ctx, &models.ExportResultsParams{}, "advisor-1")
		if err != nil {
			t.Fatalf("ExportResults failed: %v", err)
		}
		if name := f.GetSheetName(0); name != exportSheet {
			t.Errorf("Expected sheet %q, got %q", exportSheet, name)
		}
	})
}
