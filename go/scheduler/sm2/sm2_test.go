package sm2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srnotes/sr/go/catalog"
)

var testStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newScheduler(t *testing.T) *Scheduler {
	var s, err = Open(t.TempDir(), func() time.Time { return testStart })
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func review(grade int, feedback string) catalog.ReviewEvent {
	return catalog.ReviewEvent{
		CardID:    1,
		SessionID: "s",
		Timestamp: catalog.FormatTime(testStart),
		Grade:     grade,
		Feedback:  feedback,
	}
}

func mustState(t *testing.T, s *Scheduler, cardID int64) state {
	var st, ok, err = s.loadState(cardID)
	require.NoError(t, err)
	require.True(t, ok)
	return st
}

func TestOnCardCreatedRecommendsNow(t *testing.T) {
	var s = newScheduler(t)

	var rec, err = s.OnCardCreated(1)
	require.NoError(t, err)
	require.True(t, rec.Time.Equal(testStart))
	require.Equal(t, 60, rec.PrecisionSeconds)

	var st = mustState(t, s, 1)
	require.Equal(t, defaultEase, st.ease)
	require.Equal(t, 0, st.reps)
}

func TestCorrectReviewsGrowInterval(t *testing.T) {
	var s = newScheduler(t)
	_, _ = s.OnCardCreated(1)

	var recs, err = s.OnReview(1, review(1, ""))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.True(t, recs[0].Time.Equal(testStart.Add(24*time.Hour)))

	recs, err = s.OnReview(1, review(1, ""))
	require.NoError(t, err)
	require.True(t, recs[0].Time.Equal(testStart.Add(6*24*time.Hour)))

	// Third correct review multiplies by ease: 6 * 2.5 = 15 days.
	recs, err = s.OnReview(1, review(1, ""))
	require.NoError(t, err)
	require.True(t, recs[0].Time.Equal(testStart.Add(15*24*time.Hour)))

	var st = mustState(t, s, 1)
	require.Equal(t, 3, st.reps)
	require.Equal(t, 15.0, st.interval)
}

func TestFailedReviewLapses(t *testing.T) {
	var s = newScheduler(t)
	_, _ = s.OnCardCreated(1)
	_, _ = s.OnReview(1, review(1, ""))
	_, _ = s.OnReview(1, review(1, ""))

	var recs, err = s.OnReview(1, review(0, ""))
	require.NoError(t, err)
	// A lapse resurfaces within minutes, not days.
	require.True(t, recs[0].Time.Before(testStart.Add(time.Hour)))
	require.Equal(t, 86, recs[0].PrecisionSeconds)

	var st = mustState(t, s, 1)
	require.Equal(t, 0, st.reps)
	require.Equal(t, lapseIntervalDays, st.interval)
	require.InDelta(t, defaultEase-0.2, st.ease, 1e-9)
}

func TestFeedbackNudgesEaseWithinClamp(t *testing.T) {
	var s = newScheduler(t)
	_, _ = s.OnCardCreated(1)

	for i := 0; i < 10; i++ {
		var _, err = s.OnReview(1, review(1, catalog.FeedbackTooEasy))
		require.NoError(t, err)
	}
	require.Equal(t, maxEase, mustState(t, s, 1).ease)

	for i := 0; i < 20; i++ {
		var _, err = s.OnReview(1, review(1, catalog.FeedbackTooHard))
		require.NoError(t, err)
	}
	require.Equal(t, minEase, mustState(t, s, 1).ease)
}

func TestOnCardReplacedCarriesLearning(t *testing.T) {
	var s = newScheduler(t)
	_, _ = s.OnCardCreated(1)
	_, _ = s.OnReview(1, review(1, ""))
	_, _ = s.OnReview(1, review(1, "")) // interval 6, reps 2

	var rec, err = s.OnCardReplaced(1, 2)
	require.NoError(t, err)
	require.True(t, rec.Time.Equal(testStart.Add(time.Duration(4.2*24*float64(time.Hour)))))

	var st = mustState(t, s, 2)
	require.InDelta(t, 4.2, st.interval, 1e-9)
	require.Equal(t, 1, st.reps)
	require.Equal(t, defaultEase, st.ease)
}

func TestOnCardReplacedIntervalFloorsAtOneDay(t *testing.T) {
	var s = newScheduler(t)
	_, _ = s.OnCardCreated(1)
	_, _ = s.OnReview(1, review(1, "")) // interval 1

	var rec, err = s.OnCardReplaced(1, 2)
	require.NoError(t, err)
	require.True(t, rec.Time.Equal(testStart.Add(24*time.Hour)))
	require.Equal(t, 1.0, mustState(t, s, 2).interval)
}

func TestOnCardReplacedWithoutPriorState(t *testing.T) {
	var s = newScheduler(t)

	var rec, err = s.OnCardReplaced(99, 2)
	require.NoError(t, err)
	// Treated as newly created: due immediately.
	require.True(t, rec.Time.Equal(testStart))
	require.Equal(t, 0, mustState(t, s, 2).reps)
}

func TestDeletedCardDropsState(t *testing.T) {
	var s = newScheduler(t)
	_, _ = s.OnCardCreated(1)

	// Suspension retains state.
	require.NoError(t, s.OnCardStatusChanged(1, catalog.StatusInactive))
	var _, ok, err = s.loadState(1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.OnCardStatusChanged(1, catalog.StatusDeleted))
	_, ok, err = s.loadState(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPrecisionScalesWithInterval(t *testing.T) {
	var s = newScheduler(t)
	var rec = s.recommend(1, 10) // 10 days.
	require.Equal(t, 86400, rec.PrecisionSeconds)

	rec = s.recommend(1, 0.001)
	require.Equal(t, 60, rec.PrecisionSeconds)
}
