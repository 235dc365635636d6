package catalog

import (
	"fmt"

	"github.com/srnotes/sr/go/content"
)

// ReviewEvent is one graded outcome in the append-only review log.
// TimeOnFrontMS and TimeOnCardMS are nil when the card was never flipped or
// served; Feedback is empty when the user gave none; Response is the zero
// Value when there is no structured response.
type ReviewEvent struct {
	CardID        int64
	SessionID     string
	Timestamp     string
	Grade         int
	TimeOnFrontMS *int64
	TimeOnCardMS  *int64
	Feedback      string
	Response      content.Value
}

// Feedback values a review event may carry.
const (
	FeedbackTooHard   = "too_hard"
	FeedbackJustRight = "just_right"
	FeedbackTooEasy   = "too_easy"
)

// ValidateGrade returns an error unless grade is 0 or 1.
func ValidateGrade(grade int) error {
	if grade != 0 && grade != 1 {
		return fmt.Errorf("grade must be 0 or 1, not %d", grade)
	}
	return nil
}

// ValidateFeedback returns an error unless feedback is empty or known.
func ValidateFeedback(feedback string) error {
	switch feedback {
	case "", FeedbackTooHard, FeedbackJustRight, FeedbackTooEasy:
		return nil
	default:
		return fmt.Errorf("invalid feedback %q", feedback)
	}
}

// AppendReview appends a review event. The log is append-only: events are
// never mutated or removed, not even by session undo.
func (c *Catalog) AppendReview(q Querier, ev ReviewEvent) error {
	if err := ValidateGrade(ev.Grade); err != nil {
		return err
	}
	if err := ValidateFeedback(ev.Feedback); err != nil {
		return err
	}

	var feedback interface{}
	if ev.Feedback != "" {
		feedback = ev.Feedback
	}
	var response interface{}
	if !ev.Response.IsZero() {
		var canonical, err = ev.Response.Canonical()
		if err != nil {
			return fmt.Errorf("canonicalizing review response: %w", err)
		}
		response = string(canonical)
	}

	if _, err := q.Exec(`
		INSERT INTO review_log (card_id, session_id, timestamp, grade, time_on_front_ms, time_on_card_ms, feedback, response)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.CardID, ev.SessionID, ev.Timestamp, ev.Grade,
		ev.TimeOnFrontMS, ev.TimeOnCardMS, feedback, response); err != nil {
		return fmt.Errorf("appending review of card %d: %w", ev.CardID, err)
	}
	return nil
}

// ReviewRow is a review log entry as surfaced to the browse detail view.
type ReviewRow struct {
	Timestamp string `json:"timestamp"`
	Grade     int    `json:"grade"`
	Feedback  string `json:"feedback,omitempty"`
}

// ListReviews returns the most recent review events of a card, newest first.
func (c *Catalog) ListReviews(q Querier, cardID int64, limit int) ([]ReviewRow, error) {
	var out []ReviewRow
	var err = loadRows(q, `
		SELECT timestamp, grade, IFNULL(feedback, '') FROM review_log
		WHERE card_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		[]interface{}{cardID, limit},
		func() []interface{} { return []interface{}{new(string), new(int), new(string)} },
		func(l []interface{}) {
			out = append(out, ReviewRow{
				Timestamp: *l[0].(*string),
				Grade:     *l[1].(*int),
				Feedback:  *l[2].(*string),
			})
		},
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews of card %d: %w", cardID, err)
	}
	return out, nil
}
