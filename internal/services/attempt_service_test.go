package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/validator"
	"gorm.io/datatypes"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }

// seedScoredAssessment wires an active two question assessment where
// option "a" is correct on both questions, 10 points each.
func seedScoredAssessment(repo *fakeRepository, slug string) (*models.Assessment, []*models.Question) {
	assessment := repo.addAssessment(&models.Assessment{
		Slug:        slug,
		Title:       "Data Structures",
		Category:    models.CategoryTechnical,
		Mode:        models.ModeScored,
		ScoreScale:  models.ScalePercent,
		Status:      models.StatusActive,
		MaxAttempts: 2,
	})

	content := datatypes.JSON(`{"options":[{"id":"a","label":"Right","correct":true},{"id":"b","label":"Wrong","correct":false}]}`)
	q1 := repo.addQuestion(&models.Question{
		AssessmentID: assessment.ID,
		Type:         models.SingleChoice,
		Prompt:       "First question",
		Points:       10,
		Content:      content,
	})
	q2 := repo.addQuestion(&models.Question{
		AssessmentID: assessment.ID,
		Type:         models.SingleChoice,
		Prompt:       "Second question",
		Points:       10,
		Content:      content,
	})
	return assessment, []*models.Question{q1, q2}
}

func newAttemptServiceForTest(repo *fakeRepository) AttemptService {
	return NewAttemptService(repo, nil, testLogger(), validator.New(), nil)
}

func TestStartAttempt(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt is number one", func(t *testing.T) {
		repo := newFakeRepository()
		seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)

		resp, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if resp.AttemptNumber != 1 {
			t.Errorf("Expected attempt number 1, got %d", resp.AttemptNumber)
		}
		if resp.Status != models.ResultInProgress {
			t.Errorf("Expected in_progress status, got %s", resp.Status)
		}
		if resp.RemainingAttempts != 2 {
			t.Errorf("Expected 2 remaining attempts, got %d", resp.RemainingAttempts)
		}
		if len(resp.Questions) != 2 {
			t.Errorf("Expected 2 questions in response, got %d", len(resp.Questions))
		}
	})

	t.Run("attempt number counts completed results only", func(t *testing.T) {
		repo := newFakeRepository()
		assessment, _ := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)

		now := time.Now()
		repo.addResult(&models.Result{
			AssessmentID: assessment.ID, StudentID: "student-1",
			AttemptNumber: 1, AssessmentSlug: assessment.Slug, Category: assessment.Category,
			Status: models.ResultCompleted, Score: 50, CompletedAt: &now,
		})
		repo.addResult(&models.Result{
			AssessmentID: assessment.ID, StudentID: "student-1",
			AttemptNumber: 1, AssessmentSlug: assessment.Slug, Category: assessment.Category,
			Status: models.ResultAbandoned,
		})

		resp, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if resp.AttemptNumber != 2 {
			t.Errorf("Expected attempt number 2 after one completed and one abandoned, got %d", resp.AttemptNumber)
		}
	})

	t.Run("third attempt is rejected without a write", func(t *testing.T) {
		repo := newFakeRepository()
		assessment, _ := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)

		now := time.Now()
		for i := 1; i <= 2; i++ {
			repo.addResult(&models.Result{
				AssessmentID: assessment.ID, StudentID: "student-1",
				AttemptNumber: i, AssessmentSlug: assessment.Slug, Category: assessment.Category,
				Status: models.ResultCompleted, Score: 70, CompletedAt: &now,
			})
		}
		before := len(repo.results)

		_, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
		if !errors.Is(err, ErrAttemptLimitReached) {
			t.Fatalf("Expected ErrAttemptLimitReached, got %v", err)
		}
		if len(repo.results) != before {
			t.Errorf("Rejected start must not create a result row")
		}
	})

	t.Run("abandoned attempts never consume slots", func(t *testing.T) {
		repo := newFakeRepository()
		assessment, _ := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)

		for i := 0; i < 5; i++ {
			repo.addResult(&models.Result{
				AssessmentID: assessment.ID, StudentID: "student-1",
				AttemptNumber: 1, AssessmentSlug: assessment.Slug, Category: assessment.Category,
				Status: models.ResultAbandoned,
			})
		}

		resp, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
		if err != nil {
			t.Fatalf("Start failed after abandoned attempts: %v", err)
		}
		if resp.AttemptNumber != 1 {
			t.Errorf("Expected attempt number 1, got %d", resp.AttemptNumber)
		}
	})

	t.Run("inactive assessment is rejected", func(t *testing.T) {
		repo := newFakeRepository()
		repo.addAssessment(&models.Assessment{
			Slug: "draft-quiz", Title: "Draft Quiz",
			Category: models.CategoryAcademic, Status: models.StatusDraft, MaxAttempts: 2,
		})
		svc := newAttemptServiceForTest(repo)

		_, err := svc.Start(ctx, &StartAttemptRequest{Slug: "draft-quiz"}, "student-1")
		if !errors.Is(err, ErrAssessmentNotActive) {
			t.Fatalf("Expected ErrAssessmentNotActive, got %v", err)
		}
	})

	t.Run("open attempt is resumed not duplicated", func(t *testing.T) {
		repo := newFakeRepository()
		assessment, _ := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)

		open := repo.addResult(&models.Result{
			AssessmentID: assessment.ID, StudentID: "student-1",
			AttemptNumber: 1, AssessmentSlug: assessment.Slug, Category: assessment.Category,
			Status: models.ResultInProgress,
		})

		resp, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if resp.ID != open.ID {
			t.Errorf("Expected resumed result %d, got %d", open.ID, resp.ID)
		}
		if len(repo.results) != 1 {
			t.Errorf("Expected no new result row, have %d", len(repo.results))
		}
	})

	t.Run("unknown slug", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newAttemptServiceForTest(repo)

		_, err := svc.Start(ctx, &StartAttemptRequest{Slug: "missing"}, "student-1")
		if !errors.Is(err, ErrAssessmentNotFound) {
			t.Fatalf("Expected ErrAssessmentNotFound, got %v", err)
		}
	})
}

func TestSubmitAttempt(t *testing.T) {
	ctx := context.Background()

	start := func(t *testing.T, repo *fakeRepository, svc AttemptService) *AttemptResponse {
		t.Helper()
		resp, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		return resp
	}

	t.Run("fully answered attempt is graded and completed", func(t *testing.T) {
		repo := newFakeRepository()
		_, questions := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)
		attempt := start(t, repo, svc)

		resp, err := svc.Submit(ctx, &SubmitAttemptRequest{
			ResultID: attempt.ID,
			Answers: []SaveAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a"}},
				{QuestionID: questions[1].ID, SelectedOptionIDs: []string{"b"}},
			},
		}, "student-1")
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if resp.Status != models.ResultCompleted {
			t.Errorf("Expected completed status, got %s", resp.Status)
		}
		if resp.Score != 50 {
			t.Errorf("Expected score 50 for one correct of two, got %.2f", resp.Score)
		}
		if resp.CompletedAt == nil {
			t.Error("Expected completion timestamp to be set")
		}
	})

	t.Run("unanswered questions reject the submission and write nothing", func(t *testing.T) {
		repo := newFakeRepository()
		_, questions := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)
		attempt := start(t, repo, svc)

		_, err := svc.Submit(ctx, &SubmitAttemptRequest{
			ResultID: attempt.ID,
			Answers: []SaveAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a"}},
			},
		}, "student-1")

		var unanswered *UnansweredError
		if !errors.As(err, &unanswered) {
			t.Fatalf("Expected UnansweredError, got %v", err)
		}
		if unanswered.Count != 1 {
			t.Errorf("Expected 1 unanswered question, got %d", unanswered.Count)
		}

		stored, getErr := repo.Result().GetByID(ctx, nil, attempt.ID)
		if getErr != nil {
			t.Fatalf("GetByID failed: %v", getErr)
		}
		if stored.Status != models.ResultInProgress {
			t.Errorf("Rejected submission must leave the attempt in progress, got %s", stored.Status)
		}
		answers, _ := repo.Answer().GetByResult(ctx, nil, attempt.ID)
		if len(answers) != 0 {
			t.Errorf("Late answers must roll back with the rejection, found %d stored", len(answers))
		}
	})

	t.Run("resubmitting a completed attempt is rejected", func(t *testing.T) {
		repo := newFakeRepository()
		_, questions := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)
		attempt := start(t, repo, svc)

		req := &SubmitAttemptRequest{
			ResultID: attempt.ID,
			Answers: []SaveAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a"}},
				{QuestionID: questions[1].ID, SelectedOptionIDs: []string{"a"}},
			},
		}
		if _, err := svc.Submit(ctx, req, "student-1"); err != nil {
			t.Fatalf("First submit failed: %v", err)
		}
		if _, err := svc.Submit(ctx, req, "student-1"); !errors.Is(err, ErrAttemptAlreadySubmitted) {
			t.Fatalf("Expected ErrAttemptAlreadySubmitted, got %v", err)
		}
	})

	t.Run("all correct scores one hundred", func(t *testing.T) {
		repo := newFakeRepository()
		_, questions := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)
		attempt := start(t, repo, svc)

		resp, err := svc.Submit(ctx, &SubmitAttemptRequest{
			ResultID: attempt.ID,
			Answers: []SaveAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a"}},
				{QuestionID: questions[1].ID, SelectedOptionIDs: []string{"a"}},
			},
		}, "student-1")
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if resp.Score != 100 {
			t.Errorf("Expected score 100, got %.2f", resp.Score)
		}
	})

	t.Run("another student cannot submit", func(t *testing.T) {
		repo := newFakeRepository()
		_, questions := seedScoredAssessment(repo, "data-structures")
		svc := newAttemptServiceForTest(repo)
		attempt := start(t, repo, svc)

		_, err := svc.Submit(ctx, &SubmitAttemptRequest{
			ResultID: attempt.ID,
			Answers: []SaveAnswerRequest{
				{QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a"}},
				{QuestionID: questions[1].ID, SelectedOptionIDs: []string{"a"}},
			},
		}, "student-2")
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})
}

func TestSubmitSurveyAttempt(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()

	assessment := repo.addAssessment(&models.Assessment{
		Slug:        "work-values",
		Title:       "Work Values",
		Category:    models.CategoryPersonal,
		Mode:        models.ModeSurvey,
		ScoreScale:  models.ScaleOrdinal9,
		Status:      models.StatusActive,
		MaxAttempts: 2,
	})
	ratingContent := datatypes.JSON(`{"options":[{"id":"low","label":"Low","value":"3"},{"id":"high","label":"High","value":"9"}]}`)
	modelContent := datatypes.JSON(`{"options":[{"id":"team","label":"Teamwork","value":"collaboration"},{"id":"solo","label":"Independence","value":"autonomy"}]}`)
	q1 := repo.addQuestion(&models.Question{
		AssessmentID: assessment.ID, Type: models.SingleChoice, Prompt: "Rate yourself", Content: ratingContent,
	})
	q2 := repo.addQuestion(&models.Question{
		AssessmentID: assessment.ID, Type: models.SingleChoice, Prompt: "What matters most", Content: modelContent,
	})
	assessment.ModelQuestionID = &q2.ID

	svc := newAttemptServiceForTest(repo)

	attempt, err := svc.Start(ctx, &StartAttemptRequest{Slug: "work-values"}, "student-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	resp, err := svc.Submit(ctx, &SubmitAttemptRequest{
		ResultID: attempt.ID,
		Answers: []SaveAnswerRequest{
			{QuestionID: q1.ID, SelectedOptionIDs: []string{"high"}},
			{QuestionID: q2.ID, SelectedOptionIDs: []string{"team"}},
		},
	}, "student-1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if resp.ModelValue == nil || *resp.ModelValue != "collaboration" {
		t.Errorf("Expected model value \"collaboration\", got %v", resp.ModelValue)
	}
	if resp.ScoreScale != models.ScaleOrdinal9 {
		t.Errorf("Expected ordinal9 scale on the result, got %s", resp.ScoreScale)
	}
	// Mean of the numeric values 9 and nothing else; "collaboration" is
	// skipped as non-numeric.
	if resp.Score != 9 {
		t.Errorf("Expected survey score 9, got %.2f", resp.Score)
	}
}

func TestAbandonAttempt(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	seedScoredAssessment(repo, "data-structures")
	svc := newAttemptServiceForTest(repo)

	attempt, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := svc.Abandon(ctx, attempt.ID, "student-1"); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}

	stored, _ := repo.Result().GetByID(ctx, nil, attempt.ID)
	if stored.Status != models.ResultAbandoned {
		t.Errorf("Expected abandoned status, got %s", stored.Status)
	}

	// A fresh start after abandoning is still attempt number one.
	next, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
	if err != nil {
		t.Fatalf("Start after abandon failed: %v", err)
	}
	if next.AttemptNumber != 1 {
		t.Errorf("Expected attempt number 1 after abandon, got %d", next.AttemptNumber)
	}

	if err := svc.Abandon(ctx, attempt.ID, "student-1"); !errors.Is(err, ErrAttemptNotActive) {
		t.Errorf("Expected ErrAttemptNotActive on double abandon, got %v", err)
	}
}

func TestSaveAnswer(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	_, questions := seedScoredAssessment(repo, "data-structures")
	svc := newAttemptServiceForTest(repo)

	attempt, err := svc.Start(ctx, &StartAttemptRequest{Slug: "data-structures"}, "student-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	t.Run("choice answer stored with label", func(t *testing.T) {
		err := svc.SaveAnswer(ctx, attempt.ID, &SaveAnswerRequest{
			QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a"},
		}, "student-1")
		if err != nil {
			t.Fatalf("SaveAnswer failed: %v", err)
		}

		stored, err := repo.Answer().GetByResultAndQuestion(ctx, nil, attempt.ID, questions[0].ID)
		if err != nil {
			t.Fatalf("Answer not found: %v", err)
		}
		if stored.Label != "Right" {
			t.Errorf("Expected label \"Right\", got %q", stored.Label)
		}
	})

	t.Run("resaving overwrites the selection", func(t *testing.T) {
		err := svc.SaveAnswer(ctx, attempt.ID, &SaveAnswerRequest{
			QuestionID: questions[0].ID, SelectedOptionIDs: []string{"b"},
		}, "student-1")
		if err != nil {
			t.Fatalf("SaveAnswer failed: %v", err)
		}

		stored, _ := repo.Answer().GetByResultAndQuestion(ctx, nil, attempt.ID, questions[0].ID)
		if stored.Label != "Wrong" {
			t.Errorf("Expected label \"Wrong\" after resave, got %q", stored.Label)
		}
		if n, _ := repo.Answer().CountByResult(ctx, nil, attempt.ID); n != 1 {
			t.Errorf("Expected a single answer row, got %d", n)
		}
	})

	t.Run("single choice rejects multiple selections", func(t *testing.T) {
		err := svc.SaveAnswer(ctx, attempt.ID, &SaveAnswerRequest{
			QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a", "b"},
		}, "student-1")
		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("Expected validation failure, got %v", err)
		}
	})

	t.Run("unknown option is rejected", func(t *testing.T) {
		err := svc.SaveAnswer(ctx, attempt.ID, &SaveAnswerRequest{
			QuestionID: questions[0].ID, SelectedOptionIDs: []string{"z"},
		}, "student-1")
		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("Expected validation failure, got %v", err)
		}
	})

	t.Run("other students cannot answer", func(t *testing.T) {
		err := svc.SaveAnswer(ctx, attempt.ID, &SaveAnswerRequest{
			QuestionID: questions[0].ID, SelectedOptionIDs: []string{"a"},
		}, "student-2")
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})
}
