// Package review implements the review session: an in-memory cursor over
// due cards which records graded outcomes atomically with scheduler updates,
// and supports undo and mutually-exclusive sibling suppression.
package review

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/srnotes/sr/go/adapter"
	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/content"
	"github.com/srnotes/sr/go/scheduler"
)

// ErrNoCurrentCard is returned by operations requiring a served card.
var ErrNoCurrentCard = errors.New("no current card")

// ErrNothingToUndo is returned by Undo on an empty undo stack.
var ErrNothingToUndo = errors.New("nothing to undo")

// Config assembles a Session.
type Config struct {
	Catalog   *catalog.Catalog
	Scheduler scheduler.Scheduler // May be nil.
	Filters   catalog.ReviewFilters
	Clock     func() time.Time // Nil means time.Now.
}

// undoEntry captures what one completed review cycle changed in the session,
// so Undo can restore the exclusion set exactly: the card itself plus the
// sibling ids its exclusion newly contributed.
type undoEntry struct {
	card     *catalog.Card
	siblings []int64
}

// Session is one user review sitting. All methods are safe for concurrent
// use; the catalog write lock is taken only by Grade and Suspend.
type Session struct {
	id    string
	cat   *catalog.Catalog
	sched scheduler.Scheduler
	clock func() time.Time

	filters catalog.ReviewFilters
	tokens  tokenAuthority

	mu        sync.Mutex
	current   *catalog.Card
	serveTime time.Time
	flipTime  time.Time // Zero until the user reveals the back.
	reviewed  int
	excluded  map[int64]bool
	undo      []undoEntry
}

// New creates a session over the given scope.
func New(cfg Config) (*Session, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	var id = uuid.NewString()

	var tokens, err = newTokenAuthority(id, cfg.Clock)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:       id,
		cat:      cfg.Catalog,
		sched:    cfg.Scheduler,
		clock:    cfg.Clock,
		filters:  cfg.Filters,
		tokens:   tokens,
		excluded: make(map[int64]bool),
	}, nil
}

// ID is the session id recorded on review events.
func (s *Session) ID() string { return s.id }

// Token mints the signed session token review endpoints authenticate with.
func (s *Session) Token() (string, error) { return s.tokens.mint() }

// VerifyToken checks a presented session token.
func (s *Session) VerifyToken(token string) error { return s.tokens.verify(token) }

// Reviewed returns the count of completed review cycles.
func (s *Session) Reviewed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewed
}

// Current returns the card being served, or nil.
func (s *Session) Current() *catalog.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Next selects and serves the next due card within the session scope,
// or returns nil when the session is done.
func (s *Session) Next() (*catalog.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var card, err = s.cat.NextDue(s.cat.DB(), s.filters, s.excludedIDs(), s.clock())
	if err != nil {
		return nil, err
	}
	if card == nil {
		s.current = nil
		return nil, nil
	}

	s.current = card
	s.serveTime = s.clock()
	s.flipTime = time.Time{}
	cardsServed.Inc()
	return card, nil
}

// Remaining counts the cards Next could still serve.
func (s *Session) Remaining() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cat.RemainingDue(s.cat.DB(), s.filters, s.excludedIDs(), s.clock())
}

// Flip marks the back of the current card revealed and renders it.
func (s *Session) Flip() (string, error) {
	s.mu.Lock()
	var card = s.current
	if card != nil && s.flipTime.IsZero() {
		s.flipTime = s.clock()
	}
	s.mu.Unlock()

	if card == nil {
		return "", ErrNoCurrentCard
	}
	return s.RenderBack(card)
}

// Grade records the graded outcome of the current card: the review event is
// appended and the scheduler's recommendations are applied in one catalog
// transaction. The card and its mutually-exclusive siblings leave the
// session's due pool.
func (s *Session) Grade(grade int, feedback string, response content.Value) error {
	if err := catalog.ValidateGrade(grade); err != nil {
		return err
	}
	if err := catalog.ValidateFeedback(feedback); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoCurrentCard
	}
	var card = s.current
	var now = s.clock()

	var ev = catalog.ReviewEvent{
		CardID:    card.ID,
		SessionID: s.id,
		Timestamp: catalog.FormatTime(now),
		Grade:     grade,
		Feedback:  feedback,
		Response:  response,
	}
	if !s.flipTime.IsZero() {
		var frontMS = s.flipTime.Sub(s.serveTime).Milliseconds()
		ev.TimeOnFrontMS = &frontMS
	}
	if !s.serveTime.IsZero() {
		var totalMS = now.Sub(s.serveTime).Milliseconds()
		ev.TimeOnCardMS = &totalMS
	}

	var tx, err = s.cat.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = s.cat.AppendReview(tx, ev); err != nil {
		return err
	}
	if s.sched != nil {
		if recs, err := s.sched.OnReview(card.ID, ev); err != nil {
			log.WithFields(log.Fields{"card": card.ID, "error": err}).
				Warn("scheduler OnReview failed")
		} else {
			for _, rec := range recs {
				if err = s.cat.UpsertRecommendation(tx, s.sched.ID(), rec); err != nil {
					return err
				}
			}
		}
	}

	siblings, err := s.collectExclusions(tx, card.ID)
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing grade of card %d: %w", card.ID, err)
	}
	s.applyExclusions(card.ID, siblings)

	s.undo = append(s.undo, undoEntry{card: card, siblings: siblings})
	s.reviewed++
	s.current = nil
	reviewsGraded.WithLabelValues(fmt.Sprint(grade)).Inc()
	return nil
}

// Skip completes the current card's cycle without a review event; used for
// non-gradable cards. Exclusion bookkeeping matches Grade.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoCurrentCard
	}
	var card = s.current

	var siblings, err = s.collectExclusions(s.cat.DB(), card.ID)
	if err != nil {
		return err
	}
	s.applyExclusions(card.ID, siblings)
	s.undo = append(s.undo, undoEntry{card: card, siblings: siblings})
	s.reviewed++
	s.current = nil
	return nil
}

// Suspend flips the current card to inactive, removes its recommendations,
// notifies the scheduler, and then advances exactly as a skip.
func (s *Session) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoCurrentCard
	}
	var card = s.current

	var tx, err = s.cat.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = s.cat.UpdateStatus(tx, card.ID, catalog.StatusInactive); err != nil {
		return err
	}
	if err = s.cat.DeleteRecommendations(tx, card.ID); err != nil {
		return err
	}
	siblings, err := s.collectExclusions(tx, card.ID)
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing suspend of card %d: %w", card.ID, err)
	}
	s.applyExclusions(card.ID, siblings)

	if s.sched != nil {
		if err := s.sched.OnCardStatusChanged(card.ID, catalog.StatusInactive); err != nil {
			log.WithFields(log.Fields{"card": card.ID, "error": err}).
				Warn("scheduler OnCardStatusChanged failed")
		}
	}

	s.undo = append(s.undo, undoEntry{card: card, siblings: siblings})
	s.reviewed++
	s.current = nil
	return nil
}

// Undo rolls the most recent completed cycle back: the card and the sibling
// exclusions it contributed return to the due pool, and the card is restored
// as current with its back already revealed. The review log is append-only,
// so a grade event survives its own undo.
func (s *Session) Undo() (*catalog.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	var entry = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	delete(s.excluded, entry.card.ID)
	for _, id := range entry.siblings {
		delete(s.excluded, id)
	}
	s.reviewed--
	s.current = entry.card
	s.serveTime = s.clock()
	s.flipTime = s.clock()
	return entry.card, nil
}

// RenderFront renders a card's front through the adapter render cache.
func (s *Session) RenderFront(card *catalog.Card) (string, error) {
	var a, err = adapter.Get(card.Adapter)
	if err != nil {
		return "", err
	}
	return adapter.RenderFront(a, card.Content)
}

// RenderBack renders a card's back through the adapter render cache.
func (s *Session) RenderBack(card *catalog.Card) (string, error) {
	var a, err = adapter.Get(card.Adapter)
	if err != nil {
		return "", err
	}
	return adapter.RenderBack(a, card.Content)
}

// collectExclusions returns the mutually-exclusive sibling ids a completed
// card would newly exclude. It doesn't touch session state: exclusions are
// applied via applyExclusions only once the cycle's transaction has
// committed, so a failed commit leaves the due pool intact.
func (s *Session) collectExclusions(q catalog.Querier, cardID int64) ([]int64, error) {
	var siblings, err = s.cat.SiblingIDs(q, cardID)
	if err != nil {
		return nil, err
	}
	var newly []int64
	for _, id := range siblings {
		if id != cardID && !s.excluded[id] {
			newly = append(newly, id)
		}
	}
	return newly, nil
}

// applyExclusions marks a completed card and its newly-excluded siblings
// out of the due pool.
func (s *Session) applyExclusions(cardID int64, siblings []int64) {
	s.excluded[cardID] = true
	for _, id := range siblings {
		s.excluded[id] = true
	}
}

func (s *Session) excludedIDs() []int64 {
	var out = make([]int64, 0, len(s.excluded))
	for id := range s.excluded {
		out = append(out, id)
	}
	return out
}
