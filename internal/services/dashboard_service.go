package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

const recentActivityLimit = 10

func (s *dashboardService) GetProgress(ctx context.Context, studentID string) (*ProgressResponse, error) {
	s.logger.Info("Computing progress summary", "student_id", studentID)

	// Catalog totals come from the active catalog, never from the
	// student's own records.
	totals, err := s.repo.Assessment().CountActiveByCategory(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog: %w", err)
	}

	completions, err := s.repo.Dashboard().GetCategoryCompletion(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category completion: %w", err)
	}

	dates, err := s.repo.Dashboard().GetCompletionDates(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion dates: %w", err)
	}

	activities, err := s.repo.Dashboard().GetRecentActivities(ctx, nil, studentID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}

	byCategory := make(map[models.AssessmentCategory]repositories.CategoryCompletion, len(completions))
	for _, c := range completions {
		byCategory[c.Category] = c
	}

	categories := make(map[models.AssessmentCategory]CategoryProgress, len(models.Categories))
	overallCompleted := 0
	overallTotal := 0
	for _, category := range models.Categories {
		total := totals[category]
		progress := CategoryProgress{Total: total}
		if c, ok := byCategory[category]; ok {
			progress.Completed = c.Completed
			progress.AverageScore = roundFloat(c.AverageScore, 1)
		}
		// A retired assessment can leave more completions than the
		// catalog currently offers.
		if progress.Completed > progress.Total {
			progress.Completed = progress.Total
		}
		categories[category] = progress
		overallCompleted += progress.Completed
		overallTotal += progress.Total
	}

	completionRate := 0.0
	if overallTotal > 0 {
		completionRate = roundFloat(float64(overallCompleted)/float64(overallTotal)*100, 1)
	}

	recent := make([]RecentActivityResponse, len(activities))
	for i, activity := range activities {
		recent[i] = RecentActivityResponse{
			ResultID:       activity.ResultID,
			AssessmentSlug: activity.AssessmentSlug,
			Title:          activity.Title,
			Category:       activity.Category,
			Score:          roundFloat(normalizeScore(activity.Score, activity.ScoreScale), 1),
			CompletedAt:    activity.CompletedAt,
			TimeAgo:        formatTimeAgo(activity.CompletedAt),
		}
	}

	return &ProgressResponse{
		Categories:       categories,
		OverallCompleted: overallCompleted,
		OverallTotal:     overallTotal,
		CompletionRate:   completionRate,
		StreakDays:       currentStreak(dates, time.Now()),
		RecentActivity:   recent,
	}, nil
}

// ===== HELPER FUNCTIONS =====

// normalizeScore maps a stored score onto the 0-100 band. Ordinal 1-9
// self ratings stretch linearly: 1 -> 0, 9 -> 100.
func normalizeScore(score float64, scale models.ScoreScale) float64 {
	if scale != models.ScaleOrdinal9 {
		return score
	}
	normalized := (score - 1) / 8 * 100
	if normalized < 0 {
		return 0
	}
	if normalized > 100 {
		return 100
	}
	return normalized
}

// currentStreak counts consecutive calendar days with at least one
// completion, ending today. A day without a completion today means the
// streak is 0 regardless of history.
func currentStreak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := make(map[string]bool, len(dates))
	for _, d := range dates {
		days[d.Format("2006-01-02")] = true
	}

	streak := 0
	day := now
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func roundFloat(val float64, precision int) float64 {
	ratio := 1.0
	for i := 0; i < precision; i++ {
		ratio *= 10
	}
	return float64(int(val*ratio+0.5)) / ratio
}

func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(duration.Seconds()))
	case duration < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(duration.Hours()))
	case duration < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(duration.Hours()/24))
	case duration < 30*24*time.Hour:
		return fmt.Sprintf("%d weeks ago", int(duration.Hours()/(24*7)))
	case duration < 365*24*time.Hour:
		return fmt.Sprintf("%d months ago", int(duration.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%d years ago", int(duration.Hours()/(24*365)))
	}
}
