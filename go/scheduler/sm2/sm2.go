// Package sm2 implements the default SuperMemo-2 scheduling policy.
// Per-card state (ease factor, interval, repetition count) lives in a
// private SQLite database under the scheduler's state directory.
package sm2

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for registration side-effect.

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/scheduler"
)

func init() {
	scheduler.Register("sm2", func(dir string, clock func() time.Time) (scheduler.Scheduler, error) {
		return Open(dir, clock)
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS sm2_state (
	card_id INTEGER PRIMARY KEY,
	ease_factor REAL NOT NULL DEFAULT 2.5,
	interval_days REAL NOT NULL DEFAULT 0,
	repetitions INTEGER NOT NULL DEFAULT 0,
	last_review TEXT,
	next_review TEXT
);
`

// Tuning constants of the reference SM-2 policy.
const (
	defaultEase = 2.5
	minEase     = 1.3
	maxEase     = 3.0
	// Interval applied on a failed review: a hundredth of a day, so the
	// card resurfaces within the same sitting.
	lapseIntervalDays = 0.01
	// Fraction of prior interval retained when content is replaced.
	replaceCarryOver = 0.7
)

// Scheduler is an opened SM-2 policy.
type Scheduler struct {
	db    *sql.DB
	clock func() time.Time
}

type state struct {
	ease     float64
	interval float64
	reps     int
}

// Open opens (creating as needed) the SM-2 state database under dir.
func Open(dir string, clock func() time.Time) (*Scheduler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sm2 state directory: %w", err)
	}
	var path = filepath.Join(dir, "sm2.db")

	var db, err = sql.Open("sqlite3",
		fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("opening sm2 state %q: %w", path, err)
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sm2 schema: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{db: db, clock: clock}, nil
}

// ID implements scheduler.Scheduler.
func (s *Scheduler) ID() string { return "sm2" }

// Close implements scheduler.Scheduler.
func (s *Scheduler) Close() error { return s.db.Close() }

// OnCardCreated initializes default state and recommends immediate review.
func (s *Scheduler) OnCardCreated(cardID int64) (*catalog.Recommendation, error) {
	var now = s.clock()
	if _, err := s.db.Exec(`
		INSERT OR REPLACE INTO sm2_state (card_id, ease_factor, interval_days, repetitions)
		VALUES (?, ?, 0, 0)`, cardID, defaultEase); err != nil {
		return nil, fmt.Errorf("initializing sm2 state of card %d: %w", cardID, err)
	}
	return &catalog.Recommendation{CardID: cardID, Time: now, PrecisionSeconds: 60}, nil
}

// OnCardReplaced carries learning to the successor: ease is kept, the
// interval shrinks to 70% (floor one day), and one repetition is forfeited.
// Without prior state the successor is treated as newly created.
func (s *Scheduler) OnCardReplaced(oldID, newID int64) (*catalog.Recommendation, error) {
	var st, ok, err = s.loadState(oldID)
	if err != nil {
		return nil, err
	} else if !ok {
		return s.OnCardCreated(newID)
	}

	st.interval = max(st.interval*replaceCarryOver, 1)
	st.reps = max(st.reps-1, 0)

	var rec = s.recommend(newID, st.interval)
	if _, err = s.db.Exec(`
		INSERT OR REPLACE INTO sm2_state (card_id, ease_factor, interval_days, repetitions, next_review)
		VALUES (?, ?, ?, ?, ?)`,
		newID, st.ease, st.interval, st.reps, catalog.FormatTime(rec.Time)); err != nil {
		return nil, fmt.Errorf("migrating sm2 state %d -> %d: %w", oldID, newID, err)
	}
	return &rec, nil
}

// OnReview applies the SM-2 update: on a correct answer the interval grows
// through 1, 6, then interval x ease; feedback nudges ease within its
// clamp. A failed answer resets repetitions and surfaces the card shortly.
func (s *Scheduler) OnReview(cardID int64, ev catalog.ReviewEvent) ([]catalog.Recommendation, error) {
	var st, ok, err = s.loadState(cardID)
	if err != nil {
		return nil, err
	} else if !ok {
		st = state{ease: defaultEase}
	}

	if ev.Grade == 1 {
		st.reps++
		switch st.reps {
		case 1:
			st.interval = 1
		case 2:
			st.interval = 6
		default:
			st.interval = st.interval * st.ease
		}
		switch ev.Feedback {
		case catalog.FeedbackTooEasy:
			st.ease = min(st.ease+0.15, maxEase)
		case catalog.FeedbackTooHard:
			st.ease = max(st.ease-0.15, minEase)
		}
	} else {
		st.reps = 0
		st.interval = lapseIntervalDays
		st.ease = max(st.ease-0.2, minEase)
	}

	var rec = s.recommend(cardID, st.interval)
	if _, err = s.db.Exec(`
		INSERT OR REPLACE INTO sm2_state (card_id, ease_factor, interval_days, repetitions, last_review, next_review)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cardID, st.ease, st.interval, st.reps, ev.Timestamp, catalog.FormatTime(rec.Time)); err != nil {
		return nil, fmt.Errorf("updating sm2 state of card %d: %w", cardID, err)
	}
	return []catalog.Recommendation{rec}, nil
}

// OnCardStatusChanged drops state for deleted cards and retains it across
// suspensions, so a re-activated card resumes where it left off.
func (s *Scheduler) OnCardStatusChanged(cardID int64, status catalog.Status) error {
	if status != catalog.StatusDeleted {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM sm2_state WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("dropping sm2 state of card %d: %w", cardID, err)
	}
	return nil
}

// OnRelationsChanged is a no-op: SM-2 schedules cards independently.
func (s *Scheduler) OnRelationsChanged(cardIDs []int64) ([]catalog.Recommendation, error) {
	return nil, nil
}

func (s *Scheduler) loadState(cardID int64) (state, bool, error) {
	var st state
	var err = s.db.QueryRow(`
		SELECT ease_factor, interval_days, repetitions FROM sm2_state WHERE card_id = ?`,
		cardID).Scan(&st.ease, &st.interval, &st.reps)
	if err == sql.ErrNoRows {
		return st, false, nil
	} else if err != nil {
		return st, false, fmt.Errorf("loading sm2 state of card %d: %w", cardID, err)
	}
	return st, true, nil
}

// recommend converts an interval to a recommendation whose precision is 10%
// of the interval, with a one minute floor.
func (s *Scheduler) recommend(cardID int64, intervalDays float64) catalog.Recommendation {
	var next = s.clock().Add(time.Duration(intervalDays * 24 * float64(time.Hour)))
	return catalog.Recommendation{
		CardID:           cardID,
		Time:             next,
		PrecisionSeconds: max(int(intervalDays*86400*0.1), 60),
	}
}
