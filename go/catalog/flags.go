package catalog

import (
	"fmt"
)

// Flag is a free-form per-card user annotation, used for filtering reviews
// and browse listings.
type Flag struct {
	Flag string `json:"flag"`
	Note string `json:"note,omitempty"`
}

// AddFlag upserts a flag on a card, replacing any prior note.
func (c *Catalog) AddFlag(q Querier, cardID int64, flag, note string) error {
	if flag == "" {
		return fmt.Errorf("flag is required")
	}
	var noteArg interface{}
	if note != "" {
		noteArg = note
	}
	if _, err := q.Exec(`
		INSERT OR REPLACE INTO card_flags (card_id, flag, note, created_at)
		VALUES (?, ?, ?, ?)`,
		cardID, flag, noteArg, FormatTime(c.now())); err != nil {
		return fmt.Errorf("adding flag %q to card %d: %w", flag, cardID, err)
	}
	return nil
}

// RemoveFlag removes a flag from a card, if set.
func (c *Catalog) RemoveFlag(q Querier, cardID int64, flag string) error {
	if _, err := q.Exec(
		`DELETE FROM card_flags WHERE card_id = ? AND flag = ?`,
		cardID, flag); err != nil {
		return fmt.Errorf("removing flag %q from card %d: %w", flag, cardID, err)
	}
	return nil
}

// ListFlags returns the flags of one card with their notes.
func (c *Catalog) ListFlags(q Querier, cardID int64) ([]Flag, error) {
	var out []Flag
	var err = loadRows(q,
		`SELECT flag, IFNULL(note, '') FROM card_flags WHERE card_id = ? ORDER BY flag`,
		[]interface{}{cardID},
		func() []interface{} { return []interface{}{new(string), new(string)} },
		func(l []interface{}) {
			out = append(out, Flag{Flag: *l[0].(*string), Note: *l[1].(*string)})
		},
	)
	if err != nil {
		return nil, fmt.Errorf("listing flags of card %d: %w", cardID, err)
	}
	return out, nil
}

// DistinctFlags returns every flag set on a non-deleted card, sorted.
func (c *Catalog) DistinctFlags(q Querier) ([]string, error) {
	var out []string
	var err = loadRows(q, `
		SELECT DISTINCT flag FROM card_flags cf JOIN card_state cs ON cf.card_id = cs.card_id
		WHERE cs.status != 'deleted' ORDER BY flag`,
		nil,
		func() []interface{} { return []interface{}{new(string)} },
		func(l []interface{}) { out = append(out, *l[0].(*string)) },
	)
	if err != nil {
		return nil, fmt.Errorf("listing distinct flags: %w", err)
	}
	return out, nil
}
