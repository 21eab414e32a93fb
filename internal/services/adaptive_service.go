package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/adaptive"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/validator"
)

// EngineConfig holds the defaults applied when a start request and its session leave a
// limit unset.
type EngineConfig struct {
	DefaultMaxItems         int
	DefaultTimeLimitSeconds int
	ActiveSeasonID          *uint
}

type adaptiveService struct {
	repo        repositories.Repository
	selector    *ItemSelector
	evaluator   *attemptEvaluator
	recommender *recommender
	events      EngineEventService
	validator   *validator.Validator
	config      EngineConfig
	logger      *slog.Logger
	opLogger    *ServiceLogger
	now         func() time.Time
}

func NewAdaptiveService(
	repo repositories.Repository,
	selector *ItemSelector,
	eventService EngineEventService,
	validator *validator.Validator,
	config EngineConfig,
	logger *slog.Logger,
) AdaptiveService {
	now := time.Now
	return &adaptiveService{
		repo:        repo,
		selector:    selector,
		evaluator:   &attemptEvaluator{repo: repo, logger: logger, now: now},
		recommender: &recommender{repo: repo, events: eventService, logger: logger, now: now},
		events:      eventService,
		validator:   validator,
		config:      config,
		logger:      logger,
		opLogger:    NewServiceLogger(logger, LogConfig{Service: "adaptive", Component: "engine"}),
		now:         now,
	}
}

// txStandardLocator binds the catalog to the transaction the navigator runs in.
type txStandardLocator struct {
	catalog repositories.CatalogRepository
	tx      *gorm.DB
}

func (l txStandardLocator) NeighborStandard(ctx context.Context, subjectID uint, current float64, direction models.Direction) (*models.Standard, error) {
	return l.catalog.NeighborStandard(ctx, l.tx, subjectID, current, direction)
}

// ===== START =====

func (s *adaptiveService) Start(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	op := s.opLogger.WithOperation(ctx, "start_attempt", req.StudentID)

	resp, err := s.start(ctx, req)
	var attemptID uint
	if resp != nil {
		attemptID = resp.AttemptID
	}
	op.LogResult(attemptID, err)
	return resp, err
}

func (s *adaptiveService) start(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	if req.StudentID == "" {
		return nil, ErrStudentUnresolved
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	session, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	target, err := s.initialTarget(ctx, req.StudentID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	areaIDs, err := s.subjectAreaIDs(ctx, nil, req.SubjectID)
	if err != nil {
		return nil, err
	}

	first := Selection{
		SubjectID:      req.SubjectID,
		Target:         target,
		PreferredAreas: adaptive.UnderrepresentedAreas(areaIDs, nil),
	}
	question, err := s.selector.PickNext(ctx, nil, first, s.selector.Suggest(ctx, first))
	if err != nil {
		return nil, fmt.Errorf("failed to select first question: %w", err)
	}
	if question == nil {
		return nil, ErrNoInitialQuestion
	}

	now := s.now()
	attempt := &models.ExamAttempt{
		SubjectID:        req.SubjectID,
		StudentID:        req.StudentID,
		SeasonID:         s.config.ActiveSeasonID,
		State:            models.AttemptAwaitingFirstItem,
		MaxItems:         s.resolveMaxItems(req, session),
		TimeLimitSeconds: s.resolveTimeLimit(req),
		StartedAt:        now,
	}
	if session != nil {
		attempt.SessionID = &session.ID
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			return err
		}
		if err := s.repo.AskedItem().Append(ctx, tx, &models.AskedItem{
			AttemptID:       attempt.ID,
			QuestionID:      question.ID,
			Order:           1,
			DifficultyShown: target,
			PresentedAt:     now,
		}); err != nil {
			return err
		}
		attempt.State = models.AttemptInProgress
		return s.repo.Attempt().Update(ctx, tx, attempt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"student_id", attempt.StudentID,
		"subject_id", attempt.SubjectID,
		"question_id", question.ID,
		"target", target)

	s.events.NotifyAttemptStarted(ctx, attempt, question.ID, target)

	view, err := s.questionView(ctx, question)
	if err != nil {
		return nil, err
	}
	return &StartResponse{
		AttemptID: attempt.ID,
		Question:  view,
		Target:    target,
		Order:     1,
		MaxItems:  attempt.MaxItems,
		StartedAt: attempt.StartedAt,
	}, nil
}

// resolveSession loads the linked session. An unknown id drops the link.
func (s *adaptiveService) resolveSession(ctx context.Context, req *StartRequest) (*models.EvaluationSession, error) {
	if req.SessionID == nil {
		return nil, nil
	}
	session, err := s.repo.Session().GetByID(ctx, nil, *req.SessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Evaluation session not found, starting unlinked attempt",
				"session_id", *req.SessionID,
				"student_id", req.StudentID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation session: %w", err)
	}
	if session.IsClosed() {
		return nil, newRuleViolation(ErrSessionClosed, "session_open", map[string]interface{}{
			"session_id": session.ID,
			"state":      session.State,
		})
	}
	return session, nil
}

// initialTarget seeds the attempt at the standard closest to the student's ability.
func (s *adaptiveService) initialTarget(ctx context.Context, studentID string, subjectID uint) (float64, error) {
	var ability float64
	student, err := s.repo.Student().GetByID(ctx, nil, studentID)
	switch {
	case err == nil:
		ability = student.Ability()
	case repositories.IsNotFoundError(err):
		s.logger.Debug("Student has no ability record", "student_id", studentID)
	default:
		return 0, fmt.Errorf("failed to get student: %w", err)
	}

	standard, err := s.repo.Catalog().ClosestStandard(ctx, nil, subjectID, ability)
	if err != nil {
		return 0, fmt.Errorf("failed to find initial standard: %w", err)
	}
	if standard == nil {
		return 0, nil
	}
	return standard.DifficultyValue, nil
}

func (s *adaptiveService) resolveMaxItems(req *StartRequest, session *models.EvaluationSession) int {
	switch {
	case req.MaxItems != nil:
		return *req.MaxItems
	case session != nil && session.MaxItems != nil:
		return *session.MaxItems
	case session != nil && !session.InheritsItemCap():
		return 0
	default:
		return s.config.DefaultMaxItems
	}
}

func (s *adaptiveService) resolveTimeLimit(req *StartRequest) int {
	if req.TimeLimitSeconds != nil {
		return *req.TimeLimitSeconds
	}
	return s.config.DefaultTimeLimitSeconds
}

// ===== ANSWER =====

// answerOutcome carries what the locked transaction decided to the post-commit steps.
type answerOutcome struct {
	attempt   *models.ExamAttempt
	isCorrect bool
	finished  bool
	next      *models.Question
	target    float64
	order     int
}

func (s *adaptiveService) Answer(ctx context.Context, req *AnswerRequest) (*AnswerResponse, error) {
	op := s.opLogger.WithOperation(ctx, "answer_item", "")
	resp, err := s.answer(ctx, req)
	op.LogResult(req.AttemptID, err)
	return resp, err
}

func (s *adaptiveService) answer(ctx context.Context, req *AnswerRequest) (*AnswerResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	suggested := s.suggestNext(ctx, req)

	var out answerOutcome
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.answerLocked(ctx, tx, req, suggested, &out)
	})
	if err != nil {
		return nil, err
	}

	attempt := out.attempt
	s.logger.Info("Answer recorded",
		"attempt_id", attempt.ID,
		"question_id", req.QuestionID,
		"is_correct", out.isCorrect,
		"finished", out.finished)

	if !out.isCorrect {
		s.recommender.recordMiss(ctx, attempt, req.QuestionID)
	}

	resp := &AnswerResponse{
		AttemptID: attempt.ID,
		IsCorrect: out.isCorrect,
		Finished:  out.finished,
		Target:    out.target,
	}

	if out.finished {
		resp.Reason = *attempt.FinishReason
		summary, err := s.finalize(ctx, attempt, true)
		if err != nil {
			s.logger.Warn("Failed to summarize finished attempt", "attempt_id", attempt.ID, "error", err)
		}
		resp.Summary = summary
		return resp, nil
	}

	view, err := s.questionView(ctx, out.next)
	if err != nil {
		return nil, err
	}
	resp.Question = view
	resp.Order = out.order
	return resp, nil
}

func (s *adaptiveService) answerLocked(ctx context.Context, tx *gorm.DB, req *AnswerRequest, suggested uint, out *answerOutcome) error {
	attempt, err := s.lockAttempt(ctx, tx, req.AttemptID)
	if err != nil {
		return err
	}
	out.attempt = attempt
	if attempt.IsFinished() {
		return ErrAttemptFinished
	}

	latest, err := s.repo.AskedItem().Latest(ctx, tx, attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to get current item: %w", err)
	}
	if latest == nil || latest.QuestionID != req.QuestionID {
		ruleCtx := map[string]interface{}{"attempt_id": attempt.ID, "question_id": req.QuestionID}
		if latest != nil {
			ruleCtx["current_question_id"] = latest.QuestionID
		}
		return newRuleViolation(ErrQuestionNotCurrent, "current_item", ruleCtx)
	}

	answered, err := s.repo.Answer().ExistsForQuestion(ctx, tx, attempt.ID, req.QuestionID)
	if err != nil {
		return fmt.Errorf("failed to check existing answer: %w", err)
	}
	if answered {
		return newRuleViolation(ErrAnswerAlreadyRecorded, "single_answer", map[string]interface{}{
			"attempt_id":  attempt.ID,
			"question_id": req.QuestionID,
		})
	}

	option, err := s.repo.Catalog().GetOption(ctx, tx, req.QuestionID, req.OptionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidOption
		}
		return fmt.Errorf("failed to get option: %w", err)
	}

	now := s.now()
	if err := s.repo.Answer().Create(ctx, tx, &models.AnswerRecord{
		AttemptID:       attempt.ID,
		QuestionID:      req.QuestionID,
		OptionID:        option.ID,
		IsCorrect:       option.IsCorrect,
		ResponseSeconds: req.ResponseSeconds,
		CreatedAt:       now,
	}); err != nil {
		return err
	}
	out.isCorrect = option.IsCorrect

	current := latest.DifficultyShown
	if req.CurrentTarget != nil {
		current = *req.CurrentTarget
	}
	out.target = current

	asked, err := s.repo.AskedItem().Count(ctx, tx, attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to count asked items: %w", err)
	}

	if reason, done := adaptive.CheckTermination(adaptive.TerminationInput{
		Attempt:    attempt,
		Session:    attempt.Session,
		AskedCount: asked,
		Now:        now,
	}); done {
		return s.finishLocked(ctx, tx, attempt, reason, now, out)
	}

	recent, err := s.repo.Answer().RecentCorrectness(ctx, tx, attempt.ID, 2)
	if err != nil {
		return fmt.Errorf("failed to read answer streak: %w", err)
	}
	sel, err := s.nextSelection(ctx, tx, attempt, current, recent)
	if err != nil {
		return err
	}
	out.target = sel.Target

	next, err := s.selector.PickNext(ctx, tx, sel, suggested)
	if err != nil {
		return fmt.Errorf("failed to select next question: %w", err)
	}
	if next == nil {
		return s.finishLocked(ctx, tx, attempt, models.FinishedByExhaustion, now, out)
	}

	out.next = next
	out.order = asked + 1
	if err := s.repo.AskedItem().Append(ctx, tx, &models.AskedItem{
		AttemptID:       attempt.ID,
		QuestionID:      next.ID,
		Order:           out.order,
		DifficultyShown: sel.Target,
		PresentedAt:     now,
	}); err != nil {
		return err
	}

	if attempt.State != models.AttemptInProgress {
		attempt.State = models.AttemptInProgress
		return s.repo.Attempt().Update(ctx, tx, attempt)
	}
	return nil
}

// nextSelection turns the answer streak (newest first) into the next pick: the navigated
// target, the under-represented areas and every question the attempt has already shown.
func (s *adaptiveService) nextSelection(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt, current float64, recent []bool) (Selection, error) {
	navigator := adaptive.NewNavigator(txStandardLocator{catalog: s.repo.Catalog(), tx: tx})
	target, err := navigator.NextTarget(ctx, attempt.SubjectID, current, adaptive.StreakSignal(recent))
	if err != nil {
		return Selection{}, err
	}

	areaIDs, err := s.subjectAreaIDs(ctx, tx, attempt.SubjectID)
	if err != nil {
		return Selection{}, err
	}
	counts, err := s.repo.AskedItem().CountByArea(ctx, tx, attempt.ID)
	if err != nil {
		return Selection{}, fmt.Errorf("failed to count asked items by area: %w", err)
	}
	exclude, err := s.repo.AskedItem().QuestionIDs(ctx, tx, attempt.ID)
	if err != nil {
		return Selection{}, fmt.Errorf("failed to list asked questions: %w", err)
	}

	return Selection{
		SubjectID:      attempt.SubjectID,
		Target:         target,
		ExcludeIDs:     exclude,
		PreferredAreas: adaptive.UnderrepresentedAreas(areaIDs, counts),
	}, nil
}

// suggestNext consults the ranking service before the attempt row is locked. It reads
// without the lock and counts the pending answer as already recorded; the locked pick
// re-checks whatever comes back, so a stale suggestion is simply dropped. Returns 0 when
// there is nothing to ask or anything goes wrong.
func (s *adaptiveService) suggestNext(ctx context.Context, req *AnswerRequest) uint {
	if !s.selector.RankingEnabled() {
		return 0
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, req.AttemptID)
	if err != nil || attempt.IsFinished() {
		return 0
	}
	latest, err := s.repo.AskedItem().Latest(ctx, nil, attempt.ID)
	if err != nil || latest == nil || latest.QuestionID != req.QuestionID {
		return 0
	}
	option, err := s.repo.Catalog().GetOption(ctx, nil, req.QuestionID, req.OptionID)
	if err != nil {
		return 0
	}

	asked, err := s.repo.AskedItem().Count(ctx, nil, attempt.ID)
	if err != nil {
		return 0
	}
	if _, done := adaptive.CheckTermination(adaptive.TerminationInput{
		Attempt:    attempt,
		Session:    attempt.Session,
		AskedCount: asked,
		Now:        s.now(),
	}); done {
		return 0
	}

	previous, err := s.repo.Answer().RecentCorrectness(ctx, nil, attempt.ID, 1)
	if err != nil {
		return 0
	}
	current := latest.DifficultyShown
	if req.CurrentTarget != nil {
		current = *req.CurrentTarget
	}
	sel, err := s.nextSelection(ctx, nil, attempt, current, append([]bool{option.IsCorrect}, previous...))
	if err != nil {
		s.logger.Debug("Skipping ranking suggestion", "attempt_id", attempt.ID, "error", err)
		return 0
	}
	return s.selector.Suggest(ctx, sel)
}

func (s *adaptiveService) finishLocked(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt, reason models.FinishReason, at time.Time, out *answerOutcome) error {
	attempt.Finish(reason, at)
	if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
		return err
	}
	out.finished = true
	return nil
}

// ===== END =====

func (s *adaptiveService) End(ctx context.Context, req *EndRequest) (*SummaryResponse, error) {
	op := s.opLogger.WithOperation(ctx, "end_attempt", "")
	resp, err := s.end(ctx, req)
	op.LogResult(req.AttemptID, err)
	return resp, err
}

// end closes the attempt if it is still open and always recomputes its results, so
// calling it again is harmless.
func (s *adaptiveService) end(ctx context.Context, req *EndRequest) (*SummaryResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	reason := req.Reason
	if reason == "" {
		reason = models.FinishedByRequest
	}

	var attempt *models.ExamAttempt
	var closedNow bool
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		attempt, err = s.lockAttempt(ctx, tx, req.AttemptID)
		if err != nil {
			return err
		}
		if !attempt.Finish(reason, s.now()) {
			return nil
		}
		closedNow = true
		return s.repo.Attempt().Update(ctx, tx, attempt)
	})
	if err != nil {
		return nil, err
	}

	if closedNow {
		s.logger.Info("Attempt ended", "attempt_id", attempt.ID, "reason", reason)
	}
	return s.finalize(ctx, attempt, closedNow)
}

// finalize scores a finished attempt and runs the advisory follow-ups: caching results,
// backfilling recommendations and, on the first close, announcing it.
func (s *adaptiveService) finalize(ctx context.Context, attempt *models.ExamAttempt, announce bool) (*SummaryResponse, error) {
	ev, err := s.evaluator.evaluate(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	s.evaluator.persist(ctx, attempt.ID, ev)
	s.recommender.backfill(ctx, attempt)
	if announce {
		s.events.NotifyAttemptFinished(ctx, attempt, &ev.Summary)
	}
	return s.evaluator.summaryResponse(attempt, ev), nil
}

// ===== STATUS =====

func (s *adaptiveService) Status(ctx context.Context, attemptID uint) (*StatusResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	asked, err := s.repo.AskedItem().Count(ctx, nil, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to count asked items: %w", err)
	}

	resp := &StatusResponse{
		AttemptID:  attempt.ID,
		SubjectID:  attempt.SubjectID,
		StudentID:  attempt.StudentID,
		State:      attempt.State,
		Reason:     attempt.FinishReason,
		AskedCount: asked,
		MaxItems:   attempt.MaxItems,
	}
	if attempt.MaxItems > 0 {
		remaining := max(attempt.MaxItems-asked, 0)
		resp.RemainingItems = &remaining
	}
	if deadline, ok := adaptive.Deadline(attempt, attempt.Session); ok {
		resp.Deadline = &deadline
	}

	latest, err := s.repo.AskedItem().Latest(ctx, nil, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current item: %w", err)
	}
	if latest == nil {
		return resp, nil
	}
	resp.CurrentTarget = latest.DifficultyShown
	if attempt.IsFinished() {
		return resp, nil
	}

	answered, err := s.repo.Answer().ExistsForQuestion(ctx, nil, attemptID, latest.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check current item: %w", err)
	}
	if !answered {
		question, err := s.repo.Catalog().GetQuestion(ctx, nil, latest.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get current question: %w", err)
		}
		if resp.CurrentItem, err = s.questionView(ctx, question); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// ===== HELPERS =====

func (s *adaptiveService) lockAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetForUpdate(ctx, tx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to lock attempt: %w", err)
	}
	return attempt, nil
}

func (s *adaptiveService) subjectAreaIDs(ctx context.Context, tx *gorm.DB, subjectID uint) ([]uint, error) {
	areas, err := s.repo.Catalog().ListAreas(ctx, tx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subject areas: %w", err)
	}
	ids := make([]uint, 0, len(areas))
	for _, area := range areas {
		ids = append(ids, area.ID)
	}
	return ids, nil
}

// questionView strips correctness from the question before it leaves the engine.
func (s *adaptiveService) questionView(ctx context.Context, question *models.Question) (*QuestionView, error) {
	options := question.Options
	if options == nil {
		var err error
		options, err = s.repo.Catalog().ListOptions(ctx, nil, question.ID)
		if err != nil {
			return nil, err
		}
	}

	view := &QuestionView{
		ID:         question.ID,
		Text:       question.Text,
		StandardID: question.StandardID,
		Options:    make([]OptionView, 0, len(options)),
	}
	for _, opt := range options {
		view.Options = append(view.Options, OptionView{ID: opt.ID, Text: opt.Text})
	}
	return view, nil
}
