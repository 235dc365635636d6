package catalog

import (
	"fmt"
)

// Relation types known to the core. RelationReplacedBy is synthesized by the
// synchronizer; the others are declared by adapters.
const (
	RelationReplacedBy          = "is_replaced_by"
	RelationMutuallyExclusive   = "mutually_exclusive"
	RelationFollowedByOnCorrect = "is_followed_by_on_correct"
)

// InsertRelation inserts a directed relation idempotently.
func (c *Catalog) InsertRelation(q Querier, upstreamID, downstreamID int64, relationType string) error {
	if _, err := q.Exec(`
		INSERT OR IGNORE INTO card_relations (upstream_card_id, downstream_card_id, relation_type)
		VALUES (?, ?, ?)`,
		upstreamID, downstreamID, relationType); err != nil {
		return fmt.Errorf("inserting relation %d -%s-> %d: %w",
			upstreamID, relationType, downstreamID, err)
	}
	return nil
}

// SiblingIDs returns the cards linked to cardID by a mutually_exclusive
// relation. The relation is stored once but symmetric, so both edge
// directions are searched and unioned.
func (c *Catalog) SiblingIDs(q Querier, cardID int64) ([]int64, error) {
	var out []int64
	var err = loadRows(q, `
		SELECT downstream_card_id AS sibling FROM card_relations
		WHERE upstream_card_id = ? AND relation_type = 'mutually_exclusive'
		UNION
		SELECT upstream_card_id AS sibling FROM card_relations
		WHERE downstream_card_id = ? AND relation_type = 'mutually_exclusive'`,
		[]interface{}{cardID, cardID},
		func() []interface{} { return []interface{}{new(int64)} },
		func(l []interface{}) { out = append(out, *l[0].(*int64)) },
	)
	if err != nil {
		return nil, fmt.Errorf("loading siblings of card %d: %w", cardID, err)
	}
	return out, nil
}

// Relation is one directed edge between cards.
type Relation struct {
	UpstreamID   int64
	DownstreamID int64
	Type         string
}

// RelationsOf returns all relations touching a card, in either direction.
func (c *Catalog) RelationsOf(q Querier, cardID int64) ([]Relation, error) {
	var out []Relation
	var err = loadRows(q, `
		SELECT upstream_card_id, downstream_card_id, relation_type FROM card_relations
		WHERE upstream_card_id = ? OR downstream_card_id = ?
		ORDER BY upstream_card_id, downstream_card_id, relation_type`,
		[]interface{}{cardID, cardID},
		func() []interface{} { return []interface{}{new(int64), new(int64), new(string)} },
		func(l []interface{}) {
			out = append(out, Relation{
				UpstreamID:   *l[0].(*int64),
				DownstreamID: *l[1].(*int64),
				Type:         *l[2].(*string),
			})
		},
	)
	if err != nil {
		return nil, fmt.Errorf("loading relations of card %d: %w", cardID, err)
	}
	return out, nil
}
