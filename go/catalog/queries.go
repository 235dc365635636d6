package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/srnotes/sr/go/content"
)

// ReviewFilters scope the due-card queries of one review session.
// Zero-valued fields don't constrain.
type ReviewFilters struct {
	Tag        string
	PathPrefix string
	Flag       string
}

func (f ReviewFilters) clauses(excluded []int64) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Tag != "" {
		clauses = append(clauses, "c.id IN (SELECT card_id FROM card_tags WHERE tag = ?)")
		args = append(args, f.Tag)
	}
	if f.PathPrefix != "" {
		clauses = append(clauses, "c.source_path LIKE ?")
		args = append(args, f.PathPrefix+"%")
	}
	if f.Flag != "" {
		clauses = append(clauses, "c.id IN (SELECT card_id FROM card_flags WHERE flag = ?)")
		args = append(args, f.Flag)
	}
	if len(excluded) > 0 {
		clauses = append(clauses, "c.id NOT IN ("+placeholders(len(excluded))+")")
		for _, id := range excluded {
			args = append(args, id)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

// recommendationJoin collapses a card's recommendations to its earliest
// time, so a catalog that has seen multiple schedulers neither double-counts
// cards nor orders on a stale scheduler's row.
const recommendationJoin = `
		LEFT JOIN (SELECT card_id, MIN(time) AS time
		           FROM recommendations GROUP BY card_id) r ON c.id = r.card_id`

// NextDue returns the next due card within the session scope, or nil when
// none remains. A card is due when it has no recommendation or its
// recommendation time has passed. Cards holding a recommendation sort before
// those without; within each group earlier time first, ties by ascending id.
func (c *Catalog) NextDue(q Querier, f ReviewFilters, excluded []int64, now time.Time) (*Card, error) {
	var extra, args = f.clauses(excluded)
	var card = new(Card)
	var raw []byte

	var err = q.QueryRow(`
		SELECT c.id, c.source_path, c.card_key, c.adapter, c.content, c.content_hash,
		       c.display_text, c.gradable, c.source_line, c.created_at
		FROM cards c
		JOIN card_state cs ON c.id = cs.card_id`+recommendationJoin+`
		WHERE cs.status = 'active' AND c.gradable = 1
		  AND (r.time IS NULL OR r.time <= ?)`+extra+`
		ORDER BY CASE WHEN r.time IS NULL THEN 1 ELSE 0 END, r.time ASC, c.id ASC
		LIMIT 1`,
		append([]interface{}{FormatTime(now)}, args...)...).
		Scan(&card.ID, &card.SourcePath, &card.CardKey, &card.Adapter, &raw, &card.ContentHash,
			&card.DisplayText, &card.Gradable, &card.SourceLine, &card.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("selecting next due card: %w", err)
	}

	if card.Content, err = content.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding content of card %d: %w", card.ID, err)
	}
	return card, nil
}

// RemainingDue counts the cards NextDue could still return.
func (c *Catalog) RemainingDue(q Querier, f ReviewFilters, excluded []int64, now time.Time) (int, error) {
	var extra, args = f.clauses(excluded)
	var count int

	var err = q.QueryRow(`
		SELECT COUNT(*) FROM cards c
		JOIN card_state cs ON c.id = cs.card_id`+recommendationJoin+`
		WHERE cs.status = 'active' AND c.gradable = 1
		  AND (r.time IS NULL OR r.time <= ?)`+extra,
		append([]interface{}{FormatTime(now)}, args...)...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting due cards: %w", err)
	}
	return count, nil
}

// SourceStat aggregates the gradable non-deleted cards of one source path,
// feeding the deck tree projection.
type SourceStat struct {
	SourcePath string
	Total      int
	Active     int
	Due        int
}

// SourceStats returns per-source card stats over gradable non-deleted cards,
// sorted by source path. Due counts only cards holding a past recommendation.
func (c *Catalog) SourceStats(q Querier, now time.Time) ([]SourceStat, error) {
	var out []SourceStat
	var err = loadRows(q, `
		SELECT c.source_path,
		       COUNT(*),
		       SUM(CASE WHEN cs.status = 'active' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN cs.status = 'active' AND r.time IS NOT NULL AND r.time <= ? THEN 1 ELSE 0 END)
		FROM cards c
		JOIN card_state cs ON c.id = cs.card_id`+recommendationJoin+`
		WHERE c.gradable = 1 AND cs.status IN ('active', 'inactive')
		GROUP BY c.source_path ORDER BY c.source_path`,
		[]interface{}{FormatTime(now)},
		func() []interface{} {
			return []interface{}{new(string), new(int), new(int), new(int)}
		},
		func(l []interface{}) {
			out = append(out, SourceStat{
				SourcePath: *l[0].(*string),
				Total:      *l[1].(*int),
				Active:     *l[2].(*int),
				Due:        *l[3].(*int),
			})
		},
	)
	if err != nil {
		return nil, fmt.Errorf("loading source stats: %w", err)
	}
	return out, nil
}

// BrowseFilter scopes a browse listing. Zero-valued fields don't constrain.
type BrowseFilter struct {
	Status Status
	Tag    string
	Flag   string
	Query  string
	Offset int
	Limit  int
}

// CardSummary is one browse listing row.
type CardSummary struct {
	ID          int64    `json:"id"`
	DisplayText string   `json:"display_text"`
	SourcePath  string   `json:"source_path"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`
	Flags       []string `json:"flags"`
}

// ListCards returns a filtered page of non-deleted cards, newest first,
// along with the total count of matches.
func (c *Catalog) ListCards(q Querier, f BrowseFilter) ([]CardSummary, int, error) {
	var where = []string{"cs.status != 'deleted'"}
	var args []interface{}

	if f.Status != "" {
		where = append(where, "cs.status = ?")
		args = append(args, f.Status)
	}
	if f.Tag != "" {
		where = append(where, "c.id IN (SELECT card_id FROM card_tags WHERE tag = ?)")
		args = append(args, f.Tag)
	}
	if f.Flag != "" {
		where = append(where, "c.id IN (SELECT card_id FROM card_flags WHERE flag = ?)")
		args = append(args, f.Flag)
	}
	if f.Query != "" {
		where = append(where, "(c.display_text LIKE ? OR c.source_path LIKE ?)")
		args = append(args, "%"+f.Query+"%", "%"+f.Query+"%")
	}
	var whereSQL = strings.Join(where, " AND ")

	var total int
	if err := q.QueryRow(
		`SELECT COUNT(*) FROM cards c JOIN card_state cs ON c.id = cs.card_id WHERE `+whereSQL,
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting browse cards: %w", err)
	}

	var out []CardSummary
	var err = loadRows(q, `
		SELECT c.id, IFNULL(c.display_text, ''), c.source_path, cs.status
		FROM cards c JOIN card_state cs ON c.id = cs.card_id
		WHERE `+whereSQL+`
		ORDER BY c.id DESC LIMIT ? OFFSET ?`,
		append(append([]interface{}{}, args...), f.Limit, f.Offset),
		func() []interface{} {
			return []interface{}{new(int64), new(string), new(string), new(string)}
		},
		func(l []interface{}) {
			out = append(out, CardSummary{
				ID:          *l[0].(*int64),
				DisplayText: *l[1].(*string),
				SourcePath:  *l[2].(*string),
				Status:      Status(*l[3].(*string)),
			})
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing browse cards: %w", err)
	}

	for i := range out {
		if out[i].Tags, err = c.ListTags(q, out[i].ID); err != nil {
			return nil, 0, err
		}
		flags, err := c.ListFlags(q, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Flags = []string{}
		for _, fl := range flags {
			out[i].Flags = append(out[i].Flags, fl.Flag)
		}
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	return out, total, nil
}

// Aggregates are the catalog-wide counts shown by the status command.
type Aggregates struct {
	Active         int
	ActiveGradable int
	DueNow         int
	ReviewedToday  int
	TotalReviews   int
}

// LoadAggregates computes catalog-wide counts as of now.
func (c *Catalog) LoadAggregates(q Querier, now time.Time) (Aggregates, error) {
	var agg Aggregates
	var midnight = FormatTime(now)[:10] + " 00:00:00"

	var steps = []struct {
		dst   *int
		query string
		args  []interface{}
	}{
		{&agg.Active, `
			SELECT COUNT(*) FROM cards c JOIN card_state cs ON c.id = cs.card_id
			WHERE cs.status = 'active'`, nil},
		{&agg.ActiveGradable, `
			SELECT COUNT(*) FROM cards c JOIN card_state cs ON c.id = cs.card_id
			WHERE cs.status = 'active' AND c.gradable = 1`, nil},
		{&agg.DueNow, `
			SELECT COUNT(DISTINCT r.card_id)
			FROM recommendations r JOIN card_state cs ON r.card_id = cs.card_id
			WHERE cs.status = 'active' AND r.time <= ?`, []interface{}{FormatTime(now)}},
		{&agg.ReviewedToday, `
			SELECT COUNT(*) FROM review_log WHERE timestamp >= ?`, []interface{}{midnight}},
		{&agg.TotalReviews, `SELECT COUNT(*) FROM review_log`, nil},
	}
	for _, s := range steps {
		if err := q.QueryRow(s.query, s.args...).Scan(s.dst); err != nil {
			return agg, fmt.Errorf("loading catalog aggregates: %w", err)
		}
	}
	return agg, nil
}

// SourceCount is the number of active cards under one source path.
type SourceCount struct {
	SourcePath string
	Count      int
}

// ActiveSourceCounts groups active cards by source path, sorted by path.
func (c *Catalog) ActiveSourceCounts(q Querier) ([]SourceCount, error) {
	var out []SourceCount
	var err = loadRows(q, `
		SELECT c.source_path, COUNT(*)
		FROM cards c JOIN card_state cs ON c.id = cs.card_id
		WHERE cs.status = 'active'
		GROUP BY c.source_path ORDER BY c.source_path`,
		nil,
		func() []interface{} { return []interface{}{new(string), new(int)} },
		func(l []interface{}) {
			out = append(out, SourceCount{SourcePath: *l[0].(*string), Count: *l[1].(*int)})
		},
	)
	if err != nil {
		return nil, fmt.Errorf("loading source counts: %w", err)
	}
	return out, nil
}
