package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/srnotes/sr/go/content"
)

// Status is the lifecycle state of a card.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// Validate returns an error unless s is a known status.
func (s Status) Validate() error {
	switch s {
	case StatusActive, StatusInactive, StatusDeleted:
		return nil
	default:
		return fmt.Errorf("invalid card status %q", s)
	}
}

// ErrCardDeleted is returned on attempts to move a card out of the
// terminal deleted status.
var ErrCardDeleted = errors.New("card is deleted")

// ErrNotFound is returned when a referenced card doesn't exist.
var ErrNotFound = errors.New("card not found")

// Card is one immutable version of one flashcard. Edits to the underlying
// source never mutate a Card; they insert a successor row linked by an
// is_replaced_by relation.
type Card struct {
	ID          int64
	SourcePath  string
	CardKey     string
	Adapter     string
	Content     content.Value
	ContentHash string
	DisplayText string
	Gradable    bool
	SourceLine  int
	CreatedAt   string
}

// InsertCard inserts a card together with its state row, returning the new
// id. The card's canonical content encoding and fingerprint are derived
// here so that stored content and content_hash can never diverge.
func (c *Catalog) InsertCard(q Querier, card *Card, status Status) (int64, error) {
	if err := status.Validate(); err != nil {
		return 0, err
	}
	var canonical, err = card.Content.Canonical()
	if err != nil {
		return 0, fmt.Errorf("canonicalizing content of %q: %w", card.CardKey, err)
	}
	if card.ContentHash == "" {
		if card.ContentHash, err = card.Content.Fingerprint(); err != nil {
			return 0, fmt.Errorf("fingerprinting content of %q: %w", card.CardKey, err)
		}
	}

	var now = FormatTime(c.now())

	res, err := q.Exec(`
		INSERT INTO cards (source_path, card_key, adapter, content, content_hash, display_text, gradable, source_line, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.SourcePath, card.CardKey, card.Adapter, string(canonical), card.ContentHash,
		card.DisplayText, card.Gradable, card.SourceLine, now)
	if err != nil {
		return 0, fmt.Errorf("inserting card %q: %w", card.CardKey, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted card id: %w", err)
	}

	if _, err = q.Exec(
		`INSERT INTO card_state (card_id, status, updated_at) VALUES (?, ?, ?)`,
		id, status, now); err != nil {
		return 0, fmt.Errorf("inserting card state: %w", err)
	}

	card.ID = id
	card.CreatedAt = now
	return id, nil
}

// UpdateStatus transitions a card's status. Active and inactive flip freely;
// deleted is terminal: setting it is always allowed (and idempotent), but a
// deleted card can never leave it.
func (c *Catalog) UpdateStatus(q Querier, cardID int64, status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	var now = FormatTime(c.now())

	var res sql.Result
	var err error
	if status == StatusDeleted {
		res, err = q.Exec(
			`UPDATE card_state SET status = ?, updated_at = ? WHERE card_id = ?`,
			status, now, cardID)
	} else {
		res, err = q.Exec(
			`UPDATE card_state SET status = ?, updated_at = ? WHERE card_id = ? AND status != 'deleted'`,
			status, now, cardID)
	}
	if err != nil {
		return fmt.Errorf("updating status of card %d: %w", cardID, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	} else if n == 0 {
		var cur Status
		if err := q.QueryRow(`SELECT status FROM card_state WHERE card_id = ?`, cardID).
			Scan(&cur); err == sql.ErrNoRows {
			return fmt.Errorf("card %d: %w", cardID, ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("loading status of card %d: %w", cardID, err)
		}
		return fmt.Errorf("card %d cannot leave status %s: %w", cardID, cur, ErrCardDeleted)
	}
	return nil
}

// RewriteReplacedKey rewrites a card's key to "{key}__replaced_{id}",
// releasing its (source_path, card_key, adapter) uniqueness slot for the
// successor card.
func (c *Catalog) RewriteReplacedKey(q Querier, cardID int64) error {
	if _, err := q.Exec(
		`UPDATE cards SET card_key = card_key || '__replaced_' || CAST(id AS TEXT) WHERE id = ?`,
		cardID); err != nil {
		return fmt.Errorf("rewriting key of card %d: %w", cardID, err)
	}
	return nil
}

// RefreshPresentation updates the display text and source line of an
// unchanged card, which may move within its source without changing content.
func (c *Catalog) RefreshPresentation(q Querier, cardID int64, displayText string, sourceLine int) error {
	if _, err := q.Exec(
		`UPDATE cards SET display_text = ?, source_line = ? WHERE id = ?`,
		displayText, sourceLine, cardID); err != nil {
		return fmt.Errorf("refreshing card %d: %w", cardID, err)
	}
	return nil
}

// LoadCard loads one card by id, along with its status.
func (c *Catalog) LoadCard(q Querier, cardID int64) (*Card, Status, error) {
	var card = &Card{ID: cardID}
	var status Status
	var raw []byte

	var err = q.QueryRow(`
		SELECT c.source_path, c.card_key, c.adapter, c.content, c.content_hash,
		       c.display_text, c.gradable, c.source_line, c.created_at, cs.status
		FROM cards c JOIN card_state cs ON c.id = cs.card_id
		WHERE c.id = ?`, cardID).
		Scan(&card.SourcePath, &card.CardKey, &card.Adapter, &raw, &card.ContentHash,
			&card.DisplayText, &card.Gradable, &card.SourceLine, &card.CreatedAt, &status)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("card %d: %w", cardID, ErrNotFound)
	} else if err != nil {
		return nil, "", fmt.Errorf("loading card %d: %w", cardID, err)
	}

	if card.Content, err = content.Decode(raw); err != nil {
		return nil, "", fmt.Errorf("decoding content of card %d: %w", cardID, err)
	}
	return card, status, nil
}

// ResolveActive resolves the active card for a (source, key, adapter) triple,
// returning ErrNotFound if no active row exists.
func (c *Catalog) ResolveActive(q Querier, sourcePath, cardKey, adapter string) (int64, error) {
	var id int64
	var err = q.QueryRow(`
		SELECT c.id FROM cards c JOIN card_state cs ON c.id = cs.card_id
		WHERE c.source_path = ? AND c.card_key = ? AND c.adapter = ? AND cs.status = 'active'`,
		sourcePath, cardKey, adapter).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	} else if err != nil {
		return 0, fmt.Errorf("resolving card (%s, %s, %s): %w", sourcePath, cardKey, adapter, err)
	}
	return id, nil
}

// ResolveActiveTarget resolves the active card matching a relation target:
// source and key only, with no adapter constraint.
func (c *Catalog) ResolveActiveTarget(q Querier, sourcePath, cardKey string) (int64, error) {
	var id int64
	var err = q.QueryRow(`
		SELECT c.id FROM cards c JOIN card_state cs ON c.id = cs.card_id
		WHERE c.source_path = ? AND c.card_key = ? AND cs.status = 'active'`,
		sourcePath, cardKey).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	} else if err != nil {
		return 0, fmt.Errorf("resolving relation target (%s, %s): %w", sourcePath, cardKey, err)
	}
	return id, nil
}
