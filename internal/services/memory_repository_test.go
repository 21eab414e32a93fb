package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
)

// memoryStore is an in-memory stand-in for the postgres repositories. Transactions run
// the callback directly with a nil tx.
type memoryStore struct {
	mu sync.Mutex

	// openTx counts WithTransaction calls still running.
	openTx atomic.Int32

	areas     []models.Area
	topics    []models.Topic
	standards []models.Standard
	questions []models.Question
	students  map[string]models.Student
	sessions  map[uint]models.EvaluationSession

	attempts    map[uint]models.ExamAttempt
	asked       []models.AskedItem
	answers     []models.AnswerRecord
	areaResults map[uint][]models.AreaResult
	summaries   map[uint]models.AttemptSummary
	recs        []models.Recommendation

	nextID uint

	failAnswerCreate    error
	failRecommendations error
	failResults         error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		students:    map[string]models.Student{},
		sessions:    map[uint]models.EvaluationSession{},
		attempts:    map[uint]models.ExamAttempt{},
		areaResults: map[uint][]models.AreaResult{},
		summaries:   map[uint]models.AttemptSummary{},
		nextID:      1000,
	}
}

func (s *memoryStore) id() uint {
	s.nextID++
	return s.nextID
}

// addArea creates an area with one topic and the given standards. Each standard gets
// questionsPer questions; question ids are standardID*100+n and options questionID*10+1
// (correct) and questionID*10+2 (wrong).
func (s *memoryStore) addArea(subjectID, areaID uint, name string, standards map[uint]float64, questionsPer int) {
	s.areas = append(s.areas, models.Area{ID: areaID, SubjectID: subjectID, Name: name})
	s.topics = append(s.topics, models.Topic{ID: areaID, AreaID: areaID, Name: name + " topic"})

	ids := make([]uint, 0, len(standards))
	for id := range standards {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, stdID := range ids {
		s.standards = append(s.standards, models.Standard{ID: stdID, TopicID: areaID, Name: name, DifficultyValue: standards[stdID]})
		for n := 1; n <= questionsPer; n++ {
			qid := stdID*100 + uint(n)
			s.questions = append(s.questions, models.Question{
				ID:         qid,
				StandardID: stdID,
				Text:       "question",
				Active:     true,
				Options: []models.AnswerOption{
					{ID: qid*10 + 1, QuestionID: qid, Text: "right", IsCorrect: true},
					{ID: qid*10 + 2, QuestionID: qid, Text: "wrong"},
				},
			})
		}
	}
}

func (s *memoryStore) standard(id uint) (models.Standard, bool) {
	for _, st := range s.standards {
		if st.ID == id {
			return st, true
		}
	}
	return models.Standard{}, false
}

func (s *memoryStore) place(questionID uint) (*models.PlacedQuestion, bool) {
	for _, q := range s.questions {
		if q.ID != questionID {
			continue
		}
		st, _ := s.standard(q.StandardID)
		placed := &models.PlacedQuestion{QuestionID: q.ID, StandardID: st.ID, DifficultyValue: st.DifficultyValue, Active: q.Active}
		for _, t := range s.topics {
			if t.ID == st.TopicID {
				placed.AreaID = t.AreaID
			}
		}
		for _, a := range s.areas {
			if a.ID == placed.AreaID {
				placed.SubjectID = a.SubjectID
			}
		}
		return placed, true
	}
	return nil, false
}

func (s *memoryStore) answeredRow(a models.AnswerRecord) repositories.AnsweredRow {
	placed, _ := s.place(a.QuestionID)
	return repositories.AnsweredRow{
		AnswerID:        a.ID,
		QuestionID:      a.QuestionID,
		OptionID:        a.OptionID,
		StandardID:      placed.StandardID,
		AreaID:          placed.AreaID,
		AreaName:        s.areaName(placed.AreaID),
		Difficulty:      placed.DifficultyValue,
		IsCorrect:       a.IsCorrect,
		ResponseSeconds: a.ResponseSeconds,
		AnsweredAt:      a.CreatedAt,
	}
}

func (s *memoryStore) areaName(id uint) string {
	for _, a := range s.areas {
		if a.ID == id {
			return a.Name
		}
	}
	return ""
}

func (s *memoryStore) standardsIn(subjectID uint) []models.Standard {
	var out []models.Standard
	for _, st := range s.standards {
		for _, t := range s.topics {
			if t.ID != st.TopicID {
				continue
			}
			for _, a := range s.areas {
				if a.ID == t.AreaID && a.SubjectID == subjectID {
					out = append(out, st)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) questionCopy(q models.Question) *models.Question {
	out := q
	if st, ok := s.standard(q.StandardID); ok {
		out.Standard = &st
	}
	out.Options = slices.Clone(q.Options)
	return &out
}

// ===== repositories.Repository =====

type memoryRepository struct {
	store *memoryStore

	catalog        repositories.CatalogRepository
	attempt        repositories.AttemptRepository
	askedItem      repositories.AskedItemRepository
	answer         repositories.AnswerRepository
	result         repositories.ResultRepository
	recommendation repositories.RecommendationRepository
}

func newMemoryRepository(store *memoryStore) *memoryRepository {
	return &memoryRepository{
		store:          store,
		catalog:        &memoryCatalog{store},
		attempt:        &memoryAttempts{store},
		askedItem:      &memoryAsked{store},
		answer:         &memoryAnswers{store},
		result:         &memoryResults{store},
		recommendation: &memoryRecommendations{store},
	}
}

func (r *memoryRepository) Catalog() repositories.CatalogRepository               { return r.catalog }
func (r *memoryRepository) Attempt() repositories.AttemptRepository               { return r.attempt }
func (r *memoryRepository) AskedItem() repositories.AskedItemRepository           { return r.askedItem }
func (r *memoryRepository) Answer() repositories.AnswerRepository                 { return r.answer }
func (r *memoryRepository) Result() repositories.ResultRepository                 { return r.result }
func (r *memoryRepository) Recommendation() repositories.RecommendationRepository { return r.recommendation }
func (r *memoryRepository) Session() repositories.SessionRepository               { return &memorySessions{r.store} }
func (r *memoryRepository) Student() repositories.StudentRepository               { return &memoryStudents{r.store} }

func (r *memoryRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.store.openTx.Add(1)
	defer r.store.openTx.Add(-1)
	return fn(nil)
}

func (r *memoryRepository) Ping(ctx context.Context) error { return nil }
func (r *memoryRepository) Close() error                   { return nil }

// ===== catalog =====

type memoryCatalog struct{ s *memoryStore }

func (c *memoryCatalog) ClosestStandard(ctx context.Context, tx *gorm.DB, subjectID uint, target float64) (*models.Standard, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var best *models.Standard
	for _, st := range c.s.standardsIn(subjectID) {
		if best == nil || math.Abs(st.DifficultyValue-target) < math.Abs(best.DifficultyValue-target) {
			st := st
			best = &st
		}
	}
	return best, nil
}

func (c *memoryCatalog) NeighborStandard(ctx context.Context, tx *gorm.DB, subjectID uint, current float64, direction models.Direction) (*models.Standard, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var best *models.Standard
	for _, st := range c.s.standardsIn(subjectID) {
		above := st.DifficultyValue > current
		below := st.DifficultyValue < current
		if (direction == models.DirectionUp && !above) || (direction == models.DirectionDown && !below) {
			continue
		}
		if best == nil || math.Abs(st.DifficultyValue-current) < math.Abs(best.DifficultyValue-current) {
			st := st
			best = &st
		}
	}
	return best, nil
}

func (c *memoryCatalog) ListAreas(ctx context.Context, tx *gorm.DB, subjectID uint) ([]models.Area, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []models.Area
	for _, a := range c.s.areas {
		if a.SubjectID == subjectID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memoryCatalog) AreaDifficultyStats(ctx context.Context, tx *gorm.DB, areaIDs []uint) (map[uint]repositories.AreaDifficultyStats, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	sums := map[uint][]float64{}
	for _, q := range c.s.questions {
		placed, _ := c.s.place(q.ID)
		if slices.Contains(areaIDs, placed.AreaID) {
			sums[placed.AreaID] = append(sums[placed.AreaID], placed.DifficultyValue)
		}
	}
	out := map[uint]repositories.AreaDifficultyStats{}
	for id, values := range sums {
		var mean, sq float64
		for _, v := range values {
			mean += v
			sq += v * v
		}
		mean /= float64(len(values))
		sd := math.Sqrt(math.Max(0, sq/float64(len(values))-mean*mean))
		if sd == 0 {
			sd = 1
		}
		out[id] = repositories.AreaDifficultyStats{AreaID: id, Mean: mean, SD: sd, Questions: len(values)}
	}
	return out, nil
}

func (c *memoryCatalog) FindClosestQuestion(ctx context.Context, tx *gorm.DB, query repositories.QuestionQuery) (*models.Question, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	questions := slices.Clone(c.s.questions)
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })

	var best *models.Question
	var bestDistance float64
	for _, q := range questions {
		placed, _ := c.s.place(q.ID)
		if !q.Active || placed.SubjectID != query.SubjectID || slices.Contains(query.ExcludeIDs, q.ID) {
			continue
		}
		if len(query.AreaIDs) > 0 && !slices.Contains(query.AreaIDs, placed.AreaID) {
			continue
		}
		distance := math.Abs(placed.DifficultyValue - query.Target)
		if best == nil || distance < bestDistance {
			best = c.s.questionCopy(q)
			bestDistance = distance
		}
	}
	return best, nil
}

func (c *memoryCatalog) GetPlacedQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.PlacedQuestion, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	placed, ok := c.s.place(questionID)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return placed, nil
}

func (c *memoryCatalog) GetQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.Question, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, q := range c.s.questions {
		if q.ID == questionID {
			return c.s.questionCopy(q), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (c *memoryCatalog) ListOptions(ctx context.Context, tx *gorm.DB, questionID uint) ([]models.AnswerOption, error) {
	q, err := c.GetQuestion(ctx, tx, questionID)
	if err != nil {
		return nil, nil
	}
	return q.Options, nil
}

func (c *memoryCatalog) GetOption(ctx context.Context, tx *gorm.DB, questionID, optionID uint) (*models.AnswerOption, error) {
	q, err := c.GetQuestion(ctx, tx, questionID)
	if err != nil {
		return nil, err
	}
	for _, opt := range q.Options {
		if opt.ID == optionID {
			opt := opt
			return &opt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type memorySessions struct{ s *memoryStore }

func (m *memorySessions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EvaluationSession, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	session, ok := m.s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &session, nil
}

type memoryStudents struct{ s *memoryStore }

func (m *memoryStudents) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Student, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	student, ok := m.s.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &student, nil
}

// ===== attempts =====

type memoryAttempts struct{ s *memoryStore }

func (m *memoryAttempts) Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	attempt.ID = m.s.id()
	stored := *attempt
	stored.Session = nil
	m.s.attempts[attempt.ID] = stored
	return nil
}

func (m *memoryAttempts) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	attempt, ok := m.s.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if attempt.SessionID != nil {
		if session, ok := m.s.sessions[*attempt.SessionID]; ok {
			attempt.Session = &session
		}
	}
	return &attempt, nil
}

func (m *memoryAttempts) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *memoryAttempts) Update(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored := *attempt
	stored.Session = nil
	m.s.attempts[attempt.ID] = stored
	return nil
}

type memoryAsked struct{ s *memoryStore }

func (m *memoryAsked) Append(ctx context.Context, tx *gorm.DB, item *models.AskedItem) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.asked {
		if existing.AttemptID == item.AttemptID && (existing.Order == item.Order || existing.QuestionID == item.QuestionID) {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	item.ID = m.s.id()
	m.s.asked = append(m.s.asked, *item)
	return nil
}

func (m *memoryAsked) items(attemptID uint) []models.AskedItem {
	var out []models.AskedItem
	for _, item := range m.s.asked {
		if item.AttemptID == attemptID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (m *memoryAsked) Count(ctx context.Context, tx *gorm.DB, attemptID uint) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.items(attemptID)), nil
}

func (m *memoryAsked) Latest(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AskedItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	items := m.items(attemptID)
	if len(items) == 0 {
		return nil, nil
	}
	latest := items[len(items)-1]
	return &latest, nil
}

func (m *memoryAsked) QuestionIDs(ctx context.Context, tx *gorm.DB, attemptID uint) ([]uint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var ids []uint
	for _, item := range m.items(attemptID) {
		ids = append(ids, item.QuestionID)
	}
	return ids, nil
}

func (m *memoryAsked) CountByArea(ctx context.Context, tx *gorm.DB, attemptID uint) (map[uint]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := map[uint]int{}
	for _, item := range m.items(attemptID) {
		placed, _ := m.s.place(item.QuestionID)
		counts[placed.AreaID]++
	}
	return counts, nil
}

func (m *memoryAsked) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.AskedItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.items(attemptID), nil
}

// ===== answers =====

type memoryAnswers struct{ s *memoryStore }

func (m *memoryAnswers) Create(ctx context.Context, tx *gorm.DB, answer *models.AnswerRecord) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failAnswerCreate != nil {
		return m.s.failAnswerCreate
	}
	answer.ID = m.s.id()
	m.s.answers = append(m.s.answers, *answer)
	return nil
}

func (m *memoryAnswers) ExistsForQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.answers {
		if a.AttemptID == attemptID && a.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAnswers) RecentCorrectness(ctx context.Context, tx *gorm.DB, attemptID uint, n int) ([]bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []bool
	for i := len(m.s.answers) - 1; i >= 0 && len(out) < n; i-- {
		if m.s.answers[i].AttemptID == attemptID {
			out = append(out, m.s.answers[i].IsCorrect)
		}
	}
	return out, nil
}

func (m *memoryAnswers) ListAnswered(ctx context.Context, tx *gorm.DB, attemptID uint) ([]repositories.AnsweredRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var rows []repositories.AnsweredRow
	for _, a := range m.s.answers {
		if a.AttemptID == attemptID {
			rows = append(rows, m.s.answeredRow(a))
		}
	}
	return rows, nil
}

func (m *memoryAnswers) ListAnsweredByStudent(ctx context.Context, tx *gorm.DB, studentID string, filter repositories.AnsweredFilter) ([]repositories.AnsweredRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var rows []repositories.AnsweredRow
	for _, a := range m.s.answers {
		attempt, ok := m.s.attempts[a.AttemptID]
		switch {
		case !ok || attempt.StudentID != studentID:
			continue
		case filter.SubjectID != nil && attempt.SubjectID != *filter.SubjectID:
			continue
		case filter.From != nil && attempt.StartedAt.Before(*filter.From):
			continue
		case filter.To != nil && attempt.StartedAt.After(*filter.To):
			continue
		}
		rows = append(rows, m.s.answeredRow(a))
	}
	return rows, nil
}

func (m *memoryAnswers) MissesByStandard(ctx context.Context, tx *gorm.DB, attemptID uint) (map[uint]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	misses := map[uint]int{}
	for _, a := range m.s.answers {
		if a.AttemptID == attemptID && !a.IsCorrect {
			placed, _ := m.s.place(a.QuestionID)
			misses[placed.StandardID]++
		}
	}
	return misses, nil
}

// ===== results =====

type memoryResults struct{ s *memoryStore }

func (m *memoryResults) SaveAreaResults(ctx context.Context, tx *gorm.DB, attemptID uint, results []models.AreaResult) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failResults != nil {
		return m.s.failResults
	}
	m.s.areaResults[attemptID] = slices.Clone(results)
	return nil
}

func (m *memoryResults) ListAreaResults(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.AreaResult, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return slices.Clone(m.s.areaResults[attemptID]), nil
}

func (m *memoryResults) SaveSummary(ctx context.Context, tx *gorm.DB, summary *models.AttemptSummary) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failResults != nil {
		return m.s.failResults
	}
	m.s.summaries[summary.AttemptID] = *summary
	return nil
}

func (m *memoryResults) GetSummary(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AttemptSummary, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	summary, ok := m.s.summaries[attemptID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &summary, nil
}

// ===== recommendations =====

type memoryRecommendations struct{ s *memoryStore }

func (m *memoryRecommendations) find(studentID string, standardID uint) *models.Recommendation {
	for i := range m.s.recs {
		r := &m.s.recs[i]
		if r.StudentID == studentID && r.StandardID == standardID && r.Current {
			return r
		}
	}
	return nil
}

func (m *memoryRecommendations) Upsert(ctx context.Context, tx *gorm.DB, rec *models.Recommendation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failRecommendations != nil {
		return m.s.failRecommendations
	}
	if existing := m.find(rec.StudentID, rec.StandardID); existing != nil {
		existing.Priority += rec.Priority
		return nil
	}
	rec.ID = m.s.id()
	rec.Current = true
	m.s.recs = append(m.s.recs, *rec)
	return nil
}

func (m *memoryRecommendations) Reconcile(ctx context.Context, tx *gorm.DB, studentID string, misses map[uint]int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failRecommendations != nil {
		return m.s.failRecommendations
	}
	for standardID, count := range misses {
		if existing := m.find(studentID, standardID); existing != nil {
			existing.Priority = max(existing.Priority, count)
			continue
		}
		m.s.recs = append(m.s.recs, models.Recommendation{
			ID:         m.s.id(),
			StudentID:  studentID,
			StandardID: standardID,
			Current:    true,
			Priority:   count,
			Source:     models.RecommendationSourceAdaptive,
			Reason:     models.RecommendationReasonBackfill,
		})
	}
	return nil
}

func (m *memoryRecommendations) ListCurrent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.RecommendationFilters) ([]repositories.RecommendationView, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var views []repositories.RecommendationView
	for _, r := range m.s.recs {
		if r.StudentID == studentID && r.Current {
			st, _ := m.s.standard(r.StandardID)
			views = append(views, repositories.RecommendationView{
				StandardID:   r.StandardID,
				StandardName: st.Name,
				Difficulty:   st.DifficultyValue,
				Priority:     r.Priority,
				Source:       r.Source,
				Reason:       r.Reason,
			})
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Priority != views[j].Priority {
			return views[i].Priority > views[j].Priority
		}
		return views[i].StandardID < views[j].StandardID
	})
	if filters.Limit > 0 && len(views) > filters.Limit {
		views = views[:filters.Limit]
	}
	return views, nil
}

func (m *memoryRecommendations) AggregateMisses(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.RecommendationFilters) ([]repositories.RecommendationView, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := map[uint]int{}
	for _, a := range m.s.answers {
		attempt := m.s.attempts[a.AttemptID]
		if attempt.StudentID == studentID && !a.IsCorrect {
			placed, _ := m.s.place(a.QuestionID)
			counts[placed.StandardID]++
		}
	}
	var views []repositories.RecommendationView
	for standardID, count := range counts {
		st, _ := m.s.standard(standardID)
		views = append(views, repositories.RecommendationView{
			StandardID:   standardID,
			StandardName: st.Name,
			Difficulty:   st.DifficultyValue,
			Priority:     count,
			Source:       RecommendationListAggregate,
			Reason:       models.RecommendationReasonIncorrect,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Priority != views[j].Priority {
			return views[i].Priority > views[j].Priority
		}
		return views[i].StandardID < views[j].StandardID
	})
	return views, nil
}
