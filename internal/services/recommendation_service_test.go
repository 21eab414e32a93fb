package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/events"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

func singleQuestionStore() *memoryStore {
	store := newMemoryStore()
	store.addArea(1, 1, "Algebra", map[uint]float64{7: 5}, 1)
	return store
}

func TestRecommendations_RepeatedMissesRaisePriority(t *testing.T) {
	store := singleQuestionStore()
	f := newEngineFixture(t, store, EngineConfig{DefaultMaxItems: 10}, nil)
	recommendations := NewRecommendationService(f.repo, discardLogger())
	ctx := context.Background()

	for attempt := 1; attempt <= 2; attempt++ {
		started := f.start(t, &StartRequest{StudentID: "42", SubjectID: 1})
		require.Equal(t, uint(701), started.Question.ID)

		resp := f.answer(t, started.AttemptID, 701, false)
		require.True(t, resp.Finished, "attempt %d", attempt)
		assert.Equal(t, models.FinishedByExhaustion, resp.Reason)

		list, err := recommendations.ListForStudent(ctx, "42", 0)
		require.NoError(t, err)
		assert.Equal(t, RecommendationListCurrent, list.Source)
		require.Len(t, list.Recommendations, 1)
		assert.Equal(t, uint(7), list.Recommendations[0].StandardID)
		assert.Equal(t, attempt, list.Recommendations[0].Priority)
	}

	assert.Len(t, f.publisher.EventsOfType(events.EventRecommendationIssued), 2)
	assert.Len(t, store.recs, 1, "one current row per student and standard")
}

func TestRecommendations_BackfillCoversMissedUpsert(t *testing.T) {
	store := singleQuestionStore()
	f := newEngineFixture(t, store, EngineConfig{DefaultMaxItems: 10}, nil)
	started := f.start(t, &StartRequest{StudentID: "42", SubjectID: 1, MaxItems: intPtr(5)})

	// The per-answer upsert fails; the close-time backfill still records the miss.
	store.failRecommendations = fmt.Errorf("lock timeout")
	_, err := f.service.Answer(context.Background(), &AnswerRequest{AttemptID: started.AttemptID, QuestionID: 701, OptionID: 7012})
	require.NoError(t, err)
	assert.Empty(t, store.recs)

	store.failRecommendations = nil
	_, err = f.service.End(context.Background(), &EndRequest{AttemptID: started.AttemptID})
	require.NoError(t, err)

	require.Len(t, store.recs, 1)
	assert.Equal(t, 1, store.recs[0].Priority)
	assert.Equal(t, models.RecommendationReasonBackfill, store.recs[0].Reason)
}

func TestRecommendationService_ListForStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("unresolved student", func(t *testing.T) {
		svc := NewRecommendationService(newMemoryRepository(newMemoryStore()), discardLogger())
		_, err := svc.ListForStudent(ctx, "  ", 10)
		assert.ErrorIs(t, err, ErrStudentUnresolved)
	})

	t.Run("no history returns an empty list", func(t *testing.T) {
		svc := NewRecommendationService(newMemoryRepository(newMemoryStore()), discardLogger())
		list, err := svc.ListForStudent(ctx, "nobody", 10)
		require.NoError(t, err)
		assert.Equal(t, RecommendationListAggregate, list.Source)
		assert.NotNil(t, list.Recommendations)
		assert.Empty(t, list.Recommendations)
	})

	t.Run("falls back to aggregated misses", func(t *testing.T) {
		store := threeAreaStore()
		store.attempts[1] = models.ExamAttempt{ID: 1, StudentID: "s-9", SubjectID: 1}
		store.answers = []models.AnswerRecord{
			{ID: 1, AttemptID: 1, QuestionID: 101, OptionID: 1012},
			{ID: 2, AttemptID: 1, QuestionID: 301, OptionID: 3012},
			{ID: 3, AttemptID: 1, QuestionID: 302, OptionID: 3022},
			{ID: 4, AttemptID: 1, QuestionID: 401, OptionID: 4011, IsCorrect: true},
		}
		svc := NewRecommendationService(newMemoryRepository(store), discardLogger())

		list, err := svc.ListForStudent(ctx, "s-9", 0)

		require.NoError(t, err)
		assert.Equal(t, RecommendationListAggregate, list.Source)
		require.Len(t, list.Recommendations, 2)
		assert.Equal(t, uint(3), list.Recommendations[0].StandardID)
		assert.Equal(t, 2, list.Recommendations[0].Priority)
		assert.Equal(t, uint(1), list.Recommendations[1].StandardID)
	})

	t.Run("limit is capped", func(t *testing.T) {
		store := newMemoryStore()
		for i := uint(1); i <= 120; i++ {
			store.recs = append(store.recs, models.Recommendation{ID: i, StudentID: "s-1", StandardID: i, Current: true, Priority: 1})
		}
		svc := NewRecommendationService(newMemoryRepository(store), discardLogger())

		list, err := svc.ListForStudent(ctx, "s-1", 500)
		require.NoError(t, err)
		assert.Len(t, list.Recommendations, maxRecommendationLimit)

		list, err = svc.ListForStudent(ctx, "s-1", -1)
		require.NoError(t, err)
		assert.Len(t, list.Recommendations, defaultRecommendationLimit)
	})
}
