package services

import (
	"math"

	"github.com/devpath-io/devpath-service/internal/models"
)

// Fallback feature values for assessments the student has not completed.
const (
	fallbackAcademicScore  = 70.0
	fallbackTechnicalLevel = 3
	fallbackPersonalValue  = "neutral"
)

// reduceBestResults keeps one result per assessment: the highest score,
// tie broken by the latest completion.
func reduceBestResults(results []*models.Result) map[string]*models.Result {
	best := make(map[string]*models.Result)
	for _, result := range results {
		if result.Status != models.ResultCompleted {
			continue
		}
		current, ok := best[result.AssessmentSlug]
		if !ok {
			best[result.AssessmentSlug] = result
			continue
		}
		if result.Score > current.Score {
			best[result.AssessmentSlug] = result
			continue
		}
		if result.Score == current.Score && laterCompletion(result, current) {
			best[result.AssessmentSlug] = result
		}
	}
	return best
}

func laterCompletion(a, b *models.Result) bool {
	if a.CompletedAt == nil {
		return false
	}
	if b.CompletedAt == nil {
		return true
	}
	return a.CompletedAt.After(*b.CompletedAt)
}

// buildFeatures flattens the retained results into the prediction
// payload, keyed by assessment slug. Academic scores pass through as
// 0-100 percents, technical scores rescale to a 1-5 level, personal
// surveys contribute their model value. Catalog entries without a
// completed result take the category fallback.
func buildFeatures(best map[string]*models.Result, catalog []*models.Assessment) map[string]interface{} {
	features := make(map[string]interface{}, len(catalog))

	for _, assessment := range catalog {
		result := best[assessment.Slug]
		switch assessment.Category {
		case models.CategoryAcademic:
			if result != nil {
				features[assessment.Slug] = result.Score
			} else {
				features[assessment.Slug] = fallbackAcademicScore
			}
		case models.CategoryTechnical:
			if result != nil {
				features[assessment.Slug] = technicalLevel(result.Score)
			} else {
				features[assessment.Slug] = fallbackTechnicalLevel
			}
		case models.CategoryPersonal:
			if result != nil && result.ModelValue != nil {
				features[assessment.Slug] = *result.ModelValue
			} else {
				features[assessment.Slug] = fallbackPersonalValue
			}
		}
	}

	return features
}

// technicalLevel rescales a 0-100 percent to the model's 1-5 band.
func technicalLevel(score float64) int {
	level := int(math.Round(score / 100 * 5))
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	return level
}
