package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory repositories.Repository for service
// tests. WithTransaction snapshots state and restores it when the
// callback fails, mirroring a rollback.
type fakeRepository struct {
	mu sync.Mutex

	assessments map[uint]*models.Assessment
	questions   map[uint]*models.Question
	results     map[uint]*models.Result
	answers     map[uint]map[uint]*models.ResultAnswer
	selections  map[string]*models.CareerSelection
	profiles    map[string]*models.User
	roadmaps    map[string]*models.RoadmapProgress
	notices     []*models.Notification

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		assessments: make(map[uint]*models.Assessment),
		questions:   make(map[uint]*models.Question),
		results:     make(map[uint]*models.Result),
		answers:     make(map[uint]map[uint]*models.ResultAnswer),
		selections:  make(map[string]*models.CareerSelection),
		profiles:    make(map[string]*models.User),
		roadmaps:    make(map[string]*models.RoadmapProgress),
	}
}

func (f *fakeRepository) id() uint {
	f.nextID++
	return f.nextID
}

// ===== test seeding helpers =====

func (f *fakeRepository) addAssessment(a *models.Assessment) *models.Assessment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == 0 {
		a.ID = f.id()
	}
	if a.MaxAttempts == 0 {
		a.MaxAttempts = 2
	}
	f.assessments[a.ID] = a
	return a
}

func (f *fakeRepository) addQuestion(q *models.Question) *models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.ID == 0 {
		q.ID = f.id()
	}
	f.questions[q.ID] = q
	return q
}

func (f *fakeRepository) addResult(r *models.Result) *models.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		r.ID = f.id()
	}
	f.results[r.ID] = r
	return r
}

// ===== Repository =====

func (f *fakeRepository) Assessment() repositories.AssessmentRepository     { return (*fakeAssessments)(f) }
func (f *fakeRepository) Question() repositories.QuestionRepository         { return (*fakeQuestions)(f) }
func (f *fakeRepository) Result() repositories.ResultRepository             { return (*fakeResults)(f) }
func (f *fakeRepository) Answer() repositories.AnswerRepository             { return (*fakeAnswers)(f) }
func (f *fakeRepository) Career() repositories.CareerRepository             { return (*fakeCareers)(f) }
func (f *fakeRepository) Roadmap() repositories.RoadmapRepository           { return (*fakeRoadmaps)(f) }
func (f *fakeRepository) Notification() repositories.NotificationRepository { return (*fakeNotices)(f) }
func (f *fakeRepository) Profile() repositories.ProfileRepository           { return (*fakeProfiles)(f) }
func (f *fakeRepository) User() repositories.UserRepository                 { return (*fakeUsers)(f) }
func (f *fakeRepository) Dashboard() repositories.DashboardRepository       { return (*fakeDashboard)(f) }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	snapshot := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snapshot)
		return err
	}
	return nil
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

type fakeState struct {
	assessments map[uint]models.Assessment
	questions   map[uint]models.Question
	results     map[uint]models.Result
	answers     map[uint]map[uint]models.ResultAnswer
	selections  map[string]models.CareerSelection
	profiles    map[string]models.User
	roadmaps    map[string]models.RoadmapProgress
	notices     []*models.Notification
	nextID      uint
}

func (f *fakeRepository) snapshot() fakeState {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := fakeState{
		assessments: make(map[uint]models.Assessment, len(f.assessments)),
		questions:   make(map[uint]models.Question, len(f.questions)),
		results:     make(map[uint]models.Result, len(f.results)),
		answers:     make(map[uint]map[uint]models.ResultAnswer, len(f.answers)),
		selections:  make(map[string]models.CareerSelection, len(f.selections)),
		profiles:    make(map[string]models.User, len(f.profiles)),
		roadmaps:    make(map[string]models.RoadmapProgress, len(f.roadmaps)),
		notices:     append([]*models.Notification(nil), f.notices...),
		nextID:      f.nextID,
	}
	for k, v := range f.assessments {
		s.assessments[k] = *v
	}
	for k, v := range f.questions {
		s.questions[k] = *v
	}
	for k, v := range f.results {
		s.results[k] = *v
	}
	for rid, byQ := range f.answers {
		m := make(map[uint]models.ResultAnswer, len(byQ))
		for qid, a := range byQ {
			m[qid] = *a
		}
		s.answers[rid] = m
	}
	for k, v := range f.selections {
		s.selections[k] = *v
	}
	for k, v := range f.profiles {
		s.profiles[k] = *v
	}
	for k, v := range f.roadmaps {
		s.roadmaps[k] = *v
	}
	return s
}

func (f *fakeRepository) restore(s fakeState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.assessments = make(map[uint]*models.Assessment, len(s.assessments))
	for k := range s.assessments {
		v := s.assessments[k]
		f.assessments[k] = &v
	}
	f.questions = make(map[uint]*models.Question, len(s.questions))
	for k := range s.questions {
		v := s.questions[k]
		f.questions[k] = &v
	}
	f.results = make(map[uint]*models.Result, len(s.results))
	for k := range s.results {
		v := s.results[k]
		f.results[k] = &v
	}
	f.answers = make(map[uint]map[uint]*models.ResultAnswer, len(s.answers))
	for rid, byQ := range s.answers {
		m := make(map[uint]*models.ResultAnswer, len(byQ))
		for qid := range byQ {
			v := byQ[qid]
			m[qid] = &v
		}
		f.answers[rid] = m
	}
	f.selections = make(map[string]*models.CareerSelection, len(s.selections))
	for k := range s.selections {
		v := s.selections[k]
		f.selections[k] = &v
	}
	f.profiles = make(map[string]*models.User, len(s.profiles))
	for k := range s.profiles {
		v := s.profiles[k]
		f.profiles[k] = &v
	}
	f.roadmaps = make(map[string]*models.RoadmapProgress, len(s.roadmaps))
	for k := range s.roadmaps {
		v := s.roadmaps[k]
		f.roadmaps[k] = &v
	}
	f.notices = s.notices
	f.nextID = s.nextID
}

// ===== AssessmentRepository =====

type fakeAssessments fakeRepository

func (f *fakeAssessments) Create(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	(*fakeRepository)(f).addAssessment(a)
	return nil
}

func (f *fakeAssessments) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assessments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssessments) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	a, err := f.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a.Questions = nil
	for _, q := range f.questions {
		if q.AssessmentID == id {
			a.Questions = append(a.Questions, *q)
		}
	}
	return a, nil
}

func (f *fakeAssessments) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assessments {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAssessments) Update(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessments[a.ID] = a
	return nil
}

func (f *fakeAssessments) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assessments, id)
	return nil
}

func (f *fakeAssessments) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Assessment
	for _, a := range f.assessments {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAssessments) GetActive(ctx context.Context, tx *gorm.DB) ([]*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Assessment
	for _, a := range f.assessments {
		if a.Status == models.StatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssessments) GetActiveByCategory(ctx context.Context, tx *gorm.DB, category models.AssessmentCategory) ([]*models.Assessment, error) {
	all, _ := f.GetActive(ctx, tx)
	var out []*models.Assessment
	for _, a := range all {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssessments) CountActiveByCategory(ctx context.Context, tx *gorm.DB) (map[models.AssessmentCategory]int, error) {
	counts := make(map[models.AssessmentCategory]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	all, _ := f.GetActive(ctx, tx)
	for _, a := range all {
		counts[a.Category]++
	}
	return counts, nil
}

func (f *fakeAssessments) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AssessmentStatus) error {
	a, err := f.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	a.Status = status
	return nil
}

func (f *fakeAssessments) UpsertBySlug(ctx context.Context, tx *gorm.DB, a *models.Assessment) (bool, error) {
	existing, err := f.GetBySlug(ctx, tx, a.Slug)
	if err == nil {
		a.ID = existing.ID
		a.Version = existing.Version + 1
		f.mu.Lock()
		f.assessments[a.ID] = a
		f.mu.Unlock()
		return false, nil
	}
	(*fakeRepository)(f).addAssessment(a)
	return true, nil
}

func (f *fakeAssessments) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	a, err := f.GetBySlug(ctx, tx, slug)
	if err != nil {
		return false, nil
	}
	if excludeID != nil && a.ID == *excludeID {
		return false, nil
	}
	return true, nil
}

func (f *fakeAssessments) HasResults(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.AssessmentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssessments) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.AssessmentStats, error) {
	return &repositories.AssessmentStats{}, nil
}

// ===== QuestionRepository =====

type fakeQuestions fakeRepository

func (f *fakeQuestions) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	(*fakeRepository)(f).addQuestion(q)
	return nil
}

func (f *fakeQuestions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuestions) Update(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions[q.ID] = q
	return nil
}

func (f *fakeQuestions) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestions) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		(*fakeRepository)(f).addQuestion(q)
	}
	return nil
}

func (f *fakeQuestions) DeleteByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, q := range f.questions {
		if q.AssessmentID == assessmentID {
			delete(f.questions, id)
		}
	}
	return nil
}

func (f *fakeQuestions) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Question
	for _, q := range f.questions {
		if q.AssessmentID == assessmentID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int, error) {
	qs, _ := f.GetByAssessment(ctx, tx, assessmentID)
	return len(qs), nil
}

func (f *fakeQuestions) TotalPoints(ctx context.Context, tx *gorm.DB, assessmentID uint) (int, error) {
	qs, _ := f.GetByAssessment(ctx, tx, assessmentID)
	total := 0
	for _, q := range qs {
		total += q.Points
	}
	return total, nil
}

// ===== ResultRepository =====

type fakeResults fakeRepository

func (f *fakeResults) Create(ctx context.Context, tx *gorm.DB, r *models.Result) error {
	(*fakeRepository)(f).addResult(r)
	return nil
}

func (f *fakeResults) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r, nil
}

func (f *fakeResults) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeResults) Update(ctx context.Context, tx *gorm.DB, r *models.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.results[r.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.results[r.ID] = r
	return nil
}

func (f *fakeResults) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.results, id)
	return nil
}

func (f *fakeResults) GetActive(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.StudentID == studentID && r.AssessmentID == assessmentID && r.Status == models.ResultInProgress {
			return r, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeResults) CountCompleted(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.results {
		if r.StudentID == studentID && r.AssessmentID == assessmentID && r.Status == models.ResultCompleted {
			count++
		}
	}
	return count, nil
}

func (f *fakeResults) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Result
	for _, r := range f.results {
		if filters.AssessmentID != nil && r.AssessmentID != *filters.AssessmentID {
			continue
		}
		if filters.Category != nil && r.Category != *filters.Category {
			continue
		}
		if filters.StudentID != nil && r.StudentID != *filters.StudentID {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeResults) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	filters.StudentID = &studentID
	return f.List(ctx, tx, filters)
}

func (f *fakeResults) GetCompletedByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Result
	for _, r := range f.results {
		if r.StudentID == studentID && r.Status == models.ResultCompleted {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResults) GetCompletionDates(ctx context.Context, tx *gorm.DB, studentID string) ([]time.Time, error) {
	completed, _ := f.GetCompletedByStudent(ctx, tx, studentID)
	var dates []time.Time
	for _, r := range completed {
		if r.CompletedAt != nil {
			dates = append(dates, *r.CompletedAt)
		}
	}
	return dates, nil
}

func (f *fakeResults) GetRecentByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]*models.Result, error) {
	return f.GetCompletedByStudent(ctx, tx, studentID)
}

func (f *fakeResults) DeleteIncompleteByStudent(ctx context.Context, tx *gorm.DB, studentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.results {
		if r.StudentID == studentID && r.Status != models.ResultCompleted {
			delete(f.results, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeResults) DeleteByAssessmentSlug(ctx context.Context, tx *gorm.DB, slug string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.results {
		if r.AssessmentSlug == slug {
			delete(f.results, id)
			n++
		}
	}
	return n, nil
}

// ===== AnswerRepository =====

type fakeAnswers fakeRepository

func (f *fakeAnswers) Upsert(ctx context.Context, tx *gorm.DB, answer *models.ResultAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byQ, ok := f.answers[answer.ResultID]
	if !ok {
		byQ = make(map[uint]*models.ResultAnswer)
		f.answers[answer.ResultID] = byQ
	}
	if existing, ok := byQ[answer.QuestionID]; ok {
		answer.ID = existing.ID
	} else {
		answer.ID = (*fakeRepository)(f).id()
	}
	byQ[answer.QuestionID] = answer
	return nil
}

func (f *fakeAnswers) GetByResult(ctx context.Context, tx *gorm.DB, resultID uint) ([]*models.ResultAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ResultAnswer
	for _, a := range f.answers[resultID] {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAnswers) GetByResultAndQuestion(ctx context.Context, tx *gorm.DB, resultID, questionID uint) (*models.ResultAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.answers[resultID][questionID]; ok {
		return a, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAnswers) CountByResult(ctx context.Context, tx *gorm.DB, resultID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers[resultID]), nil
}

func (f *fakeAnswers) DeleteByResult(ctx context.Context, tx *gorm.DB, resultID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.answers, resultID)
	return nil
}

// ===== CareerRepository =====

type fakeCareers fakeRepository

func (f *fakeCareers) CreateSelection(ctx context.Context, tx *gorm.DB, selection *models.CareerSelection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.selections[selection.StudentID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	selection.ID = (*fakeRepository)(f).id()
	f.selections[selection.StudentID] = selection
	return nil
}

func (f *fakeCareers) GetSelection(ctx context.Context, tx *gorm.DB, studentID string) (*models.CareerSelection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.selections[studentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s, nil
}

func (f *fakeCareers) HasSelection(ctx context.Context, tx *gorm.DB, studentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.selections[studentID]
	return ok, nil
}

func (f *fakeCareers) DeleteSelection(ctx context.Context, tx *gorm.DB, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.selections, studentID)
	return nil
}

// ===== RoadmapRepository =====

type fakeRoadmaps fakeRepository

func (f *fakeRoadmaps) Create(ctx context.Context, tx *gorm.DB, progress *models.RoadmapProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	progress.ID = (*fakeRepository)(f).id()
	f.roadmaps[progress.StudentID] = progress
	return nil
}

func (f *fakeRoadmaps) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) (*models.RoadmapProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.roadmaps[studentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (f *fakeRoadmaps) Update(ctx context.Context, tx *gorm.DB, progress *models.RoadmapProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roadmaps[progress.StudentID] = progress
	return nil
}

func (f *fakeRoadmaps) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roadmaps, studentID)
	return nil
}

// ===== NotificationRepository =====

type fakeNotices fakeRepository

func (f *fakeNotices) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification.ID = (*fakeRepository)(f).id()
	f.notices = append(f.notices, notification)
	return nil
}

func (f *fakeNotices) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.notices {
		if n.UserID != userID {
			continue
		}
		if filters.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotices) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notices {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeNotices) MarkRead(ctx context.Context, tx *gorm.DB, id uint, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notices {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeNotices) CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, notice := range f.notices {
		if notice.UserID == userID && !notice.Read {
			n++
		}
	}
	return n, nil
}

// ===== ProfileRepository =====

type fakeProfiles fakeRepository

func (f *fakeProfiles) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[user.ID] = user
	return nil
}

func (f *fakeProfiles) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.profiles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (f *fakeProfiles) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return f.Create(ctx, tx, user)
}

func (f *fakeProfiles) Upsert(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return f.Create(ctx, tx, user)
}

func (f *fakeProfiles) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfiles) SetCareerSelection(ctx context.Context, tx *gorm.DB, studentID, jobRole, category string, matchScore float64) error {
	u, err := f.GetByID(ctx, tx, studentID)
	if err != nil {
		return err
	}
	u.SelectedJobRole = &jobRole
	u.CareerCategory = &category
	u.CareerMatchScore = &matchScore
	return nil
}

func (f *fakeProfiles) SetEmailVerified(ctx context.Context, tx *gorm.DB, id string, verified bool) error {
	u, err := f.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	u.EmailVerified = verified
	return nil
}

func (f *fakeProfiles) ListIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

// ===== UserRepository =====

type fakeUsers fakeRepository

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return (*fakeProfiles)(f).GetByID(ctx, nil, id)
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.profiles {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, err := f.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.profiles {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := f.GetByID(ctx, id)
	return err == nil, nil
}

func (f *fakeUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.Role == role, nil
}

// ===== DashboardRepository =====

type fakeDashboard fakeRepository

func (f *fakeDashboard) GetCategoryCompletion(ctx context.Context, tx *gorm.DB, studentID string) ([]repositories.CategoryCompletion, error) {
	completed, _ := (*fakeResults)(f).GetCompletedByStudent(ctx, tx, studentID)

	type agg struct {
		slugs map[string]bool
		sum   float64
		n     int
	}
	byCategory := make(map[models.AssessmentCategory]*agg)
	for _, r := range completed {
		a, ok := byCategory[r.Category]
		if !ok {
			a = &agg{slugs: make(map[string]bool)}
			byCategory[r.Category] = a
		}
		a.slugs[r.AssessmentSlug] = true
		a.sum += normalizeScore(r.Score, r.ScoreScale)
		a.n++
	}

	var out []repositories.CategoryCompletion
	for category, a := range byCategory {
		out = append(out, repositories.CategoryCompletion{
			Category:     category,
			Completed:    len(a.slugs),
			AverageScore: a.sum / float64(a.n),
		})
	}
	return out, nil
}

func (f *fakeDashboard) GetCompletionDates(ctx context.Context, tx *gorm.DB, studentID string) ([]time.Time, error) {
	return (*fakeResults)(f).GetCompletionDates(ctx, tx, studentID)
}

func (f *fakeDashboard) GetRecentActivities(ctx context.Context, tx *gorm.DB, studentID string, limit int) ([]repositories.RecentActivityData, error) {
	completed, _ := (*fakeResults)(f).GetCompletedByStudent(ctx, tx, studentID)
	var out []repositories.RecentActivityData
	for _, r := range completed {
		if len(out) >= limit {
			break
		}
		completedAt := time.Now()
		if r.CompletedAt != nil {
			completedAt = *r.CompletedAt
		}
		out = append(out, repositories.RecentActivityData{
			ResultID:       r.ID,
			AssessmentSlug: r.AssessmentSlug,
			Category:       r.Category,
			Score:          r.Score,
			ScoreScale:     r.ScoreScale,
			CompletedAt:    completedAt,
		})
	}
	return out, nil
}
