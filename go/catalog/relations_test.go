package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInsertRelationIsIdempotent(t *testing.T) {
	var cat, _ = newTestCatalog(t)
	var a = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)
	var b = mustInsert(t, cat, testCard("/n/a.md", "qa_1"), StatusActive)

	require.NoError(t, cat.InsertRelation(cat.DB(), a, b, RelationMutuallyExclusive))
	require.NoError(t, cat.InsertRelation(cat.DB(), a, b, RelationMutuallyExclusive))

	var rels, err = cat.RelationsOf(cat.DB(), a)
	require.NoError(t, err)
	require.Equal(t, []Relation{{UpstreamID: a, DownstreamID: b, Type: RelationMutuallyExclusive}}, rels)
}

func TestSiblingIDsSearchesBothDirections(t *testing.T) {
	var cat, _ = newTestCatalog(t)
	var a = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)
	var b = mustInsert(t, cat, testCard("/n/a.md", "qa_1"), StatusActive)
	var c = mustInsert(t, cat, testCard("/n/a.md", "qa_2"), StatusActive)

	require.NoError(t, cat.InsertRelation(cat.DB(), a, b, RelationMutuallyExclusive))
	require.NoError(t, cat.InsertRelation(cat.DB(), c, a, RelationMutuallyExclusive))
	// Unrelated relation types don't count as siblings.
	require.NoError(t, cat.InsertRelation(cat.DB(), a, c, RelationFollowedByOnCorrect))

	var siblings, err = cat.SiblingIDs(cat.DB(), a)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{b, c}, siblings)

	siblings, err = cat.SiblingIDs(cat.DB(), b)
	require.NoError(t, err)
	require.Equal(t, []int64{a}, siblings)
}

func TestSyncTags(t *testing.T) {
	var cat, _ = newTestCatalog(t)
	var id = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)

	require.NoError(t, cat.SyncTags(cat.DB(), id, []string{"math", "algebra"}))
	var tags, err = cat.ListTags(cat.DB(), id)
	require.NoError(t, err)
	require.Equal(t, []string{"algebra", "math"}, tags)

	// Re-sync replaces the set.
	require.NoError(t, cat.SyncTags(cat.DB(), id, []string{"math", "calculus"}))
	tags, err = cat.ListTags(cat.DB(), id)
	require.NoError(t, err)
	require.Equal(t, []string{"calculus", "math"}, tags)
}

func TestDistinctTagsExcludesDeletedCards(t *testing.T) {
	var cat, _ = newTestCatalog(t)
	var live = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)
	var dead = mustInsert(t, cat, testCard("/n/a.md", "qa_1"), StatusActive)

	require.NoError(t, cat.AddTag(cat.DB(), live, "keep"))
	require.NoError(t, cat.AddTag(cat.DB(), dead, "gone"))
	require.NoError(t, cat.UpdateStatus(cat.DB(), dead, StatusDeleted))

	var tags, err = cat.DistinctTags(cat.DB())
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, tags)
}

func TestFlags(t *testing.T) {
	var cat, _ = newTestCatalog(t)
	var id = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)

	require.NoError(t, cat.AddFlag(cat.DB(), id, "needs-work", "unclear wording"))
	// Re-adding replaces the note.
	require.NoError(t, cat.AddFlag(cat.DB(), id, "needs-work", "still unclear"))

	var flags, err = cat.ListFlags(cat.DB(), id)
	require.NoError(t, err)
	require.Equal(t, []Flag{{Flag: "needs-work", Note: "still unclear"}}, flags)

	require.NoError(t, cat.RemoveFlag(cat.DB(), id, "needs-work"))
	flags, err = cat.ListFlags(cat.DB(), id)
	require.NoError(t, err)
	require.Empty(t, flags)
}

func TestRecommendationLifecycle(t *testing.T) {
	var cat, clock = newTestCatalog(t)
	var id = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)
	var at = clock.Now().Add(time.Hour).Truncate(time.Second)

	require.NoError(t, cat.UpsertRecommendation(cat.DB(), "sm2",
		Recommendation{CardID: id, Time: at, PrecisionSeconds: 60}))

	var rec, err = cat.LoadRecommendation(cat.DB(), id, "sm2")
	require.NoError(t, err)
	require.True(t, at.Equal(rec.Time))
	require.Equal(t, 60, rec.PrecisionSeconds)

	// One recommendation per (card, scheduler): upsert replaces.
	require.NoError(t, cat.UpsertRecommendation(cat.DB(), "sm2",
		Recommendation{CardID: id, Time: at.Add(time.Hour), PrecisionSeconds: 120}))
	rec, err = cat.LoadRecommendation(cat.DB(), id, "sm2")
	require.NoError(t, err)
	require.Equal(t, 120, rec.PrecisionSeconds)

	require.NoError(t, cat.DeleteRecommendations(cat.DB(), id))
	_, err = cat.LoadRecommendation(cat.DB(), id, "sm2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAppendAndListReviews(t *testing.T) {
	var cat, clock = newTestCatalog(t)
	var id = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)

	var frontMS = int64(1200)
	require.NoError(t, cat.AppendReview(cat.DB(), ReviewEvent{
		CardID: id, SessionID: "s1", Timestamp: FormatTime(clock.Now()),
		Grade: 0, TimeOnFrontMS: &frontMS, Feedback: FeedbackTooHard,
	}))
	clock.Advance(time.Minute)
	require.NoError(t, cat.AppendReview(cat.DB(), ReviewEvent{
		CardID: id, SessionID: "s1", Timestamp: FormatTime(clock.Now()), Grade: 1,
	}))

	var rows, err = cat.ListReviews(cat.DB(), id, 20)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Newest first.
	require.Equal(t, 1, rows[0].Grade)
	require.Equal(t, 0, rows[1].Grade)
	require.Equal(t, FeedbackTooHard, rows[1].Feedback)
}

func TestAppendReviewValidates(t *testing.T) {
	var cat, clock = newTestCatalog(t)
	var id = mustInsert(t, cat, testCard("/n/a.md", "qa_0"), StatusActive)

	var err = cat.AppendReview(cat.DB(), ReviewEvent{
		CardID: id, SessionID: "s", Timestamp: FormatTime(clock.Now()), Grade: 3,
	})
	require.Error(t, err)

	err = cat.AppendReview(cat.DB(), ReviewEvent{
		CardID: id, SessionID: "s", Timestamp: FormatTime(clock.Now()),
		Grade: 1, Feedback: "meh",
	})
	require.Error(t, err)
}
