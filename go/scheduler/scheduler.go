// Package scheduler defines the contract between the card catalog and the
// pluggable scheduling policies which decide when each card next surfaces.
// A scheduler owns its own persistent state keyed by card id, receives
// card-lifecycle events, and returns recommendations which the caller writes
// into the catalog.
//
// Hook failures never abort synchronization or review: callers log them and
// continue without recommendation updates for that card. Hooks may be
// retried after partial recovery, so implementations must be effectively
// idempotent.
package scheduler

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/srnotes/sr/go/catalog"
)

// Scheduler is one scheduling policy with private per-card state.
type Scheduler interface {
	// ID is the short identifier stored as scheduler_id on recommendations.
	ID() string
	// OnCardCreated fires when a card first enters active state.
	OnCardCreated(cardID int64) (*catalog.Recommendation, error)
	// OnCardReplaced fires when a card's content changed. The policy
	// decides how much prior learning carries to the successor.
	OnCardReplaced(oldID, newID int64) (*catalog.Recommendation, error)
	// OnReview is the only event that changes mastery state. It may
	// return recommendations for any cards, not just the reviewed one.
	OnReview(cardID int64, ev catalog.ReviewEvent) ([]catalog.Recommendation, error)
	// OnCardStatusChanged fires on transitions to inactive or deleted.
	OnCardStatusChanged(cardID int64, status catalog.Status) error
	// OnRelationsChanged is advisory, for policies using relation graphs.
	OnRelationsChanged(cardIDs []int64) ([]catalog.Recommendation, error)
	// Close releases the scheduler's private state store.
	Close() error
}

// Factory constructs a scheduler rooted at its private state directory.
// The clock supplies every timestamp the policy computes with.
type Factory func(dir string, clock func() time.Time) (Scheduler, error)

// ErrUnknownScheduler is returned by Open for names never registered.
var ErrUnknownScheduler = errors.New("unknown scheduler")

var registry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{m: make(map[string]Factory)}

// Register adds a scheduler factory under name. Registering a name twice
// panics.
func Register(name string, fn Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.m[name]; ok {
		panic(fmt.Sprintf("scheduler %q registered twice", name))
	}
	registry.m[name] = fn
}

// Open resolves a registered scheduler and constructs it with its state
// directory <srDir>/schedulers/<name>/. A nil clock means time.Now.
func Open(name, srDir string, clock func() time.Time) (Scheduler, error) {
	registry.mu.RLock()
	var fn, ok = registry.m[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("scheduler %q: %w", name, ErrUnknownScheduler)
	}
	if clock == nil {
		clock = time.Now
	}
	var s, err = fn(filepath.Join(srDir, "schedulers", name), clock)
	if err != nil {
		return nil, fmt.Errorf("opening scheduler %q: %w", name, err)
	}
	return s, nil
}
