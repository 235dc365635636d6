package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// Recommendation is a scheduler's advice that a card should next surface no
// earlier than Time, give or take PrecisionSeconds.
type Recommendation struct {
	CardID           int64
	Time             time.Time
	PrecisionSeconds int
}

// UpsertRecommendation stores at most one recommendation per
// (card, scheduler) pair, replacing any prior row.
func (c *Catalog) UpsertRecommendation(q Querier, schedulerID string, rec Recommendation) error {
	if _, err := q.Exec(`
		INSERT OR REPLACE INTO recommendations (card_id, scheduler_id, time, precision_seconds)
		VALUES (?, ?, ?, ?)`,
		rec.CardID, schedulerID, FormatTime(rec.Time), rec.PrecisionSeconds); err != nil {
		return fmt.Errorf("upserting recommendation for card %d: %w", rec.CardID, err)
	}
	return nil
}

// DeleteRecommendations removes every scheduler's recommendation for a card.
// Called whenever a card leaves active status.
func (c *Catalog) DeleteRecommendations(q Querier, cardID int64) error {
	if _, err := q.Exec(
		`DELETE FROM recommendations WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("deleting recommendations of card %d: %w", cardID, err)
	}
	return nil
}

// LoadRecommendation reads the recommendation a scheduler holds for a card,
// or ErrNotFound.
func (c *Catalog) LoadRecommendation(q Querier, cardID int64, schedulerID string) (Recommendation, error) {
	var rec = Recommendation{CardID: cardID}
	var stored string

	var err = q.QueryRow(`
		SELECT time, precision_seconds FROM recommendations
		WHERE card_id = ? AND scheduler_id = ?`,
		cardID, schedulerID).Scan(&stored, &rec.PrecisionSeconds)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	} else if err != nil {
		return rec, fmt.Errorf("loading recommendation of card %d: %w", cardID, err)
	}
	if rec.Time, err = ParseTime(stored); err != nil {
		return rec, err
	}
	return rec, nil
}
