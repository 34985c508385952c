package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/devpath-io/devpath-service/internal/models"
	"gorm.io/datatypes"
)

// buildAnswer resolves the selected option ids of a choice question into
// a stored answer row. Free text questions carry only the text field.
func buildAnswer(resultID uint, question *models.Question, req *SaveAnswerRequest) (*models.ResultAnswer, error) {
	answer := &models.ResultAnswer{
		ResultID:   resultID,
		QuestionID: question.ID,
	}

	if question.Type == models.FreeText {
		if req.Text == nil || strings.TrimSpace(*req.Text) == "" {
			return nil, fmt.Errorf("free text answer requires text")
		}
		answer.Text = req.Text
		return answer, nil
	}

	options, err := question.ChoiceOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid question content: %w", err)
	}
	if len(req.SelectedOptionIDs) == 0 {
		return nil, fmt.Errorf("choice answer requires at least one selected option")
	}
	if question.Type == models.SingleChoice && len(req.SelectedOptionIDs) > 1 {
		return nil, fmt.Errorf("single choice question accepts one option")
	}

	byID := make(map[string]models.ChoiceOption, len(options))
	for _, opt := range options {
		byID[opt.ID] = opt
	}

	labels := make([]string, 0, len(req.SelectedOptionIDs))
	for _, id := range req.SelectedOptionIDs {
		opt, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown option %q", id)
		}
		labels = append(labels, opt.Label)
	}

	selected, err := json.Marshal(req.SelectedOptionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode selection: %w", err)
	}
	answer.Selected = datatypes.JSON(selected)
	answer.Label = strings.Join(labels, ", ")

	// Single selections carry the option's machine value for the
	// prediction features.
	if len(req.SelectedOptionIDs) == 1 {
		if opt := byID[req.SelectedOptionIDs[0]]; opt.Value != nil {
			answer.Value = opt.Value
		}
	}

	return answer, nil
}

// countUnanswered reports how many questions have no stored answer.
func countUnanswered(questions []models.Question, answers []*models.ResultAnswer) int {
	answered := make(map[uint]bool, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = true
	}

	unanswered := 0
	for _, q := range questions {
		if !answered[q.ID] {
			unanswered++
		}
	}
	return unanswered
}

func questionByID(questions []models.Question, id uint) *models.Question {
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i]
		}
	}
	return nil
}

// gradeAttempt computes the attempt score and per-answer grades.
// Scored mode: earned points over total points as a percentage.
// Survey mode: the mean of the numeric option values, so an ordinal9
// survey stores the raw 1-9 self rating.
func gradeAttempt(assessment *models.Assessment, answers []*models.ResultAnswer) (float64, []*models.ResultAnswer, error) {
	byQuestion := make(map[uint]*models.Question, len(assessment.Questions))
	for i := range assessment.Questions {
		byQuestion[assessment.Questions[i].ID] = &assessment.Questions[i]
	}

	if assessment.Mode == models.ModeSurvey {
		score := surveyScore(answers)
		return score, nil, nil
	}

	totalPoints := 0
	earnedPoints := 0.0
	graded := make([]*models.ResultAnswer, 0, len(answers))

	for _, answer := range answers {
		question, ok := byQuestion[answer.QuestionID]
		if !ok {
			continue
		}
		totalPoints += question.Points

		if question.Type == models.FreeText {
			// Free text is recorded, not graded.
			continue
		}

		correct, err := isCorrectChoice(question, answer)
		if err != nil {
			return 0, nil, err
		}

		answer.Correct = &correct
		if correct {
			answer.Score = float64(question.Points)
			earnedPoints += float64(question.Points)
		} else {
			answer.Score = 0
		}
		graded = append(graded, answer)
	}

	if totalPoints == 0 {
		return 0, graded, nil
	}
	return earnedPoints / float64(totalPoints) * 100, graded, nil
}

// isCorrectChoice requires the selected set to exactly match the correct
// option set. Partial credit is not awarded.
func isCorrectChoice(question *models.Question, answer *models.ResultAnswer) (bool, error) {
	options, err := question.ChoiceOptions()
	if err != nil {
		return false, fmt.Errorf("invalid content for question %d: %w", question.ID, err)
	}

	var selected []string
	if len(answer.Selected) > 0 {
		if err := json.Unmarshal(answer.Selected, &selected); err != nil {
			return false, fmt.Errorf("invalid selection for question %d: %w", question.ID, err)
		}
	}

	correct := make(map[string]bool)
	for _, opt := range options {
		if opt.Correct {
			correct[opt.ID] = true
		}
	}
	if len(selected) != len(correct) {
		return false, nil
	}
	for _, id := range selected {
		if !correct[id] {
			return false, nil
		}
	}
	return len(correct) > 0, nil
}

// surveyScore averages the numeric machine values of the answers.
// Non-numeric values are skipped.
func surveyScore(answers []*models.ResultAnswer) float64 {
	sum := 0.0
	count := 0
	for _, answer := range answers {
		if answer.Value == nil {
			continue
		}
		v, err := strconv.ParseFloat(*answer.Value, 64)
		if err != nil {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Round(sum/float64(count)*100) / 100
}

// extractModelValue pulls the machine value of the designated model
// question. Nil when the assessment has no model question or the answer
// carries no value.
func extractModelValue(assessment *models.Assessment, answers []*models.ResultAnswer) *string {
	if assessment.ModelQuestionID == nil {
		return nil
	}
	for _, answer := range answers {
		if answer.QuestionID == *assessment.ModelQuestionID {
			if answer.Value != nil {
				return answer.Value
			}
			if answer.Label != "" {
				label := answer.Label
				return &label
			}
			return nil
		}
	}
	return nil
}
