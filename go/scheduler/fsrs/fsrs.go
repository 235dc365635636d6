// Package fsrs implements a scheduling policy backed by the FSRS algorithm
// of github.com/open-spaced-repetition/go-fsrs. Per-card FSRS state is
// serialized as JSON into a private SQLite database; algorithm parameters
// may be overridden by a params.json file in the state directory.
package fsrs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for registration side-effect.
	gofsrs "github.com/open-spaced-repetition/go-fsrs/v3"

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/scheduler"
)

func init() {
	scheduler.Register("fsrs", func(dir string, clock func() time.Time) (scheduler.Scheduler, error) {
		return Open(dir, clock)
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS fsrs_state (
	card_id INTEGER PRIMARY KEY,
	card JSON NOT NULL
);
`

// Scheduler is an opened FSRS policy.
type Scheduler struct {
	db    *sql.DB
	f     *gofsrs.FSRS
	clock func() time.Time
}

// Open opens (creating as needed) the FSRS state database under dir and
// loads parameters, merge-patching params.json over the defaults if present.
func Open(dir string, clock func() time.Time) (*Scheduler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating fsrs state directory: %w", err)
	}
	var params, err = loadParams(filepath.Join(dir, "params.json"))
	if err != nil {
		return nil, err
	}

	var path = filepath.Join(dir, "fsrs.db")
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("opening fsrs state %q: %w", path, err)
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing fsrs schema: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{db: db, f: gofsrs.NewFSRS(params), clock: clock}, nil
}

// ID implements scheduler.Scheduler.
func (s *Scheduler) ID() string { return "fsrs" }

// Close implements scheduler.Scheduler.
func (s *Scheduler) Close() error { return s.db.Close() }

// OnCardCreated stores a fresh FSRS card and recommends immediate review.
func (s *Scheduler) OnCardCreated(cardID int64) (*catalog.Recommendation, error) {
	if err := s.storeCard(cardID, gofsrs.NewCard()); err != nil {
		return nil, err
	}
	return &catalog.Recommendation{CardID: cardID, Time: s.clock(), PrecisionSeconds: 60}, nil
}

// OnCardReplaced copies the predecessor's FSRS state to the successor, so an
// edit doesn't reset learning. Without prior state the successor is new.
func (s *Scheduler) OnCardReplaced(oldID, newID int64) (*catalog.Recommendation, error) {
	var card, ok, err = s.loadCard(oldID)
	if err != nil {
		return nil, err
	} else if !ok {
		return s.OnCardCreated(newID)
	}
	if err = s.storeCard(newID, card); err != nil {
		return nil, err
	}
	var rec = s.recommend(newID, card)
	return &rec, nil
}

// OnReview advances the FSRS state by the rating implied by the grade and
// feedback, and recommends the card's new due time.
func (s *Scheduler) OnReview(cardID int64, ev catalog.ReviewEvent) ([]catalog.Recommendation, error) {
	var card, ok, err = s.loadCard(cardID)
	if err != nil {
		return nil, err
	} else if !ok {
		card = gofsrs.NewCard()
	}

	var now = s.clock()
	var next = s.f.Repeat(card, now)
	card = next[rating(ev)].Card

	if err = s.storeCard(cardID, card); err != nil {
		return nil, err
	}
	return []catalog.Recommendation{s.recommend(cardID, card)}, nil
}

// OnCardStatusChanged drops state for deleted cards.
func (s *Scheduler) OnCardStatusChanged(cardID int64, status catalog.Status) error {
	if status != catalog.StatusDeleted {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM fsrs_state WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("dropping fsrs state of card %d: %w", cardID, err)
	}
	return nil
}

// OnRelationsChanged is a no-op: FSRS schedules cards independently.
func (s *Scheduler) OnRelationsChanged(cardIDs []int64) ([]catalog.Recommendation, error) {
	return nil, nil
}

// rating maps a binary grade plus optional feedback onto the four FSRS
// ratings: failures are Again; successes default to Good, with feedback
// refining to Easy or Hard.
func rating(ev catalog.ReviewEvent) gofsrs.Rating {
	if ev.Grade == 0 {
		return gofsrs.Again
	}
	switch ev.Feedback {
	case catalog.FeedbackTooEasy:
		return gofsrs.Easy
	case catalog.FeedbackTooHard:
		return gofsrs.Hard
	default:
		return gofsrs.Good
	}
}

func (s *Scheduler) recommend(cardID int64, card gofsrs.Card) catalog.Recommendation {
	return catalog.Recommendation{
		CardID:           cardID,
		Time:             card.Due,
		PrecisionSeconds: max(int(float64(card.ScheduledDays)*86400*0.1), 60),
	}
}

func (s *Scheduler) loadCard(cardID int64) (gofsrs.Card, bool, error) {
	var raw []byte
	var err = s.db.QueryRow(
		`SELECT card FROM fsrs_state WHERE card_id = ?`, cardID).Scan(&raw)
	if err == sql.ErrNoRows {
		return gofsrs.Card{}, false, nil
	} else if err != nil {
		return gofsrs.Card{}, false, fmt.Errorf("loading fsrs state of card %d: %w", cardID, err)
	}

	var card gofsrs.Card
	if err = json.Unmarshal(raw, &card); err != nil {
		return gofsrs.Card{}, false, fmt.Errorf("decoding fsrs state of card %d: %w", cardID, err)
	}
	return card, true, nil
}

func (s *Scheduler) storeCard(cardID int64, card gofsrs.Card) error {
	var raw, err = json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encoding fsrs state of card %d: %w", cardID, err)
	}
	if _, err = s.db.Exec(`
		INSERT OR REPLACE INTO fsrs_state (card_id, card) VALUES (?, ?)`,
		cardID, string(raw)); err != nil {
		return fmt.Errorf("storing fsrs state of card %d: %w", cardID, err)
	}
	return nil
}
