package catalog

import (
	"strings"
)

// ScopedCard is the slice of an existing row that the synchronizer diffs
// scan output against.
type ScopedCard struct {
	ID          int64
	SourcePath  string
	CardKey     string
	Adapter     string
	ContentHash string
	Status      Status
}

// Triple is the natural key of a non-deleted card row.
type Triple struct {
	SourcePath string
	CardKey    string
	Adapter    string
}

// LoadInScope loads the non-deleted rows a sync may touch: those whose
// source_path equals one of the scanned sources or scanned file inputs, or
// falls under a scanned directory input. Cards outside this scope are never
// disturbed by a sync.
func (c *Catalog) LoadInScope(q Querier, sources, files, dirs []string) (map[Triple]ScopedCard, error) {
	var conditions []string
	var args []interface{}

	if len(sources) > 0 {
		conditions = append(conditions,
			"c.source_path IN ("+placeholders(len(sources))+")")
		for _, s := range sources {
			args = append(args, s)
		}
	}
	for _, f := range files {
		conditions = append(conditions, "c.source_path = ?")
		args = append(args, f)
	}
	for _, d := range dirs {
		conditions = append(conditions, "c.source_path LIKE ?")
		args = append(args, strings.TrimSuffix(d, "/")+"/%")
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	var out = make(map[Triple]ScopedCard)
	var err = loadRows(q, `
		SELECT c.id, c.source_path, c.card_key, c.adapter, c.content_hash, cs.status
		FROM cards c JOIN card_state cs ON c.id = cs.card_id
		WHERE (`+strings.Join(conditions, " OR ")+`) AND cs.status IN ('active', 'inactive')`,
		args,
		func() []interface{} {
			return []interface{}{new(int64), new(string), new(string), new(string), new(string), new(string)}
		},
		func(l []interface{}) {
			var row = ScopedCard{
				ID:          *l[0].(*int64),
				SourcePath:  *l[1].(*string),
				CardKey:     *l[2].(*string),
				Adapter:     *l[3].(*string),
				ContentHash: *l[4].(*string),
				Status:      Status(*l[5].(*string)),
			}
			out[Triple{row.SourcePath, row.CardKey, row.Adapter}] = row
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
