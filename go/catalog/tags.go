package catalog

import (
	"fmt"
)

// SyncTags makes the card's stored tag set equal to tags: missing tags are
// added and extras removed. The latest scan of a source is authoritative for
// its cards' tags.
func (c *Catalog) SyncTags(q Querier, cardID int64, tags []string) error {
	var existing = make(map[string]bool)
	var err = loadRows(q,
		`SELECT tag FROM card_tags WHERE card_id = ?`,
		[]interface{}{cardID},
		func() []interface{} { return []interface{}{new(string)} },
		func(l []interface{}) { existing[*l[0].(*string)] = true },
	)
	if err != nil {
		return fmt.Errorf("loading tags of card %d: %w", cardID, err)
	}

	var want = make(map[string]bool, len(tags))
	for _, tag := range tags {
		want[tag] = true
	}

	for tag := range want {
		if !existing[tag] {
			if _, err = q.Exec(
				`INSERT OR IGNORE INTO card_tags (card_id, tag) VALUES (?, ?)`,
				cardID, tag); err != nil {
				return fmt.Errorf("adding tag %q to card %d: %w", tag, cardID, err)
			}
		}
	}
	for tag := range existing {
		if !want[tag] {
			if _, err = q.Exec(
				`DELETE FROM card_tags WHERE card_id = ? AND tag = ?`,
				cardID, tag); err != nil {
				return fmt.Errorf("removing tag %q from card %d: %w", tag, cardID, err)
			}
		}
	}
	return nil
}

// AddTag adds a single tag to a card, out of band of any scan.
func (c *Catalog) AddTag(q Querier, cardID int64, tag string) error {
	if tag == "" {
		return fmt.Errorf("tag is required")
	}
	if _, err := q.Exec(
		`INSERT OR IGNORE INTO card_tags (card_id, tag) VALUES (?, ?)`,
		cardID, tag); err != nil {
		return fmt.Errorf("adding tag %q to card %d: %w", tag, cardID, err)
	}
	return nil
}

// RemoveTag removes a single tag from a card.
func (c *Catalog) RemoveTag(q Querier, cardID int64, tag string) error {
	if _, err := q.Exec(
		`DELETE FROM card_tags WHERE card_id = ? AND tag = ?`,
		cardID, tag); err != nil {
		return fmt.Errorf("removing tag %q from card %d: %w", tag, cardID, err)
	}
	return nil
}

// ListTags returns the tags of one card, sorted.
func (c *Catalog) ListTags(q Querier, cardID int64) ([]string, error) {
	var out []string
	var err = loadRows(q,
		`SELECT tag FROM card_tags WHERE card_id = ? ORDER BY tag`,
		[]interface{}{cardID},
		func() []interface{} { return []interface{}{new(string)} },
		func(l []interface{}) { out = append(out, *l[0].(*string)) },
	)
	if err != nil {
		return nil, fmt.Errorf("listing tags of card %d: %w", cardID, err)
	}
	return out, nil
}

// DistinctTags returns every tag attached to a non-deleted card, sorted.
func (c *Catalog) DistinctTags(q Querier) ([]string, error) {
	var out []string
	var err = loadRows(q, `
		SELECT DISTINCT tag FROM card_tags ct JOIN card_state cs ON ct.card_id = cs.card_id
		WHERE cs.status != 'deleted' ORDER BY tag`,
		nil,
		func() []interface{} { return []interface{}{new(string)} },
		func(l []interface{}) { out = append(out, *l[0].(*string)) },
	)
	if err != nil {
		return nil, fmt.Errorf("listing distinct tags: %w", err)
	}
	return out, nil
}
