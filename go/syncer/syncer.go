// Package syncer reconciles scanner output with the card catalog: new cards
// are inserted, edited cards are replaced (preserving learning state through
// the scheduler), and vanished cards are deleted. Only cards under the
// scanned paths are ever touched; the rest of the catalog is out of scope.
package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/scanner"
	"github.com/srnotes/sr/go/scheduler"
)

// Stats counts the per-card outcomes of one sync.
type Stats struct {
	New       int
	Updated   int
	Deleted   int
	Unchanged int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d new, %d updated, %d deleted, %d unchanged",
		s.New, s.Updated, s.Deleted, s.Unchanged)
}

// scannedCard pairs one parsed card with its source.
type scannedCard struct {
	source *scanner.Source
	card   *catalog.Card
	tags   []string
}

// Sync applies the reconciliation protocol in a single catalog transaction.
// The scheduler may be nil; its hook failures are logged and never abort.
// The context is honored between cards: cancellation rolls back the whole
// uncommitted batch.
func Sync(
	ctx context.Context,
	cat *catalog.Catalog,
	sources []scanner.Source,
	scannedPaths []string,
	sched scheduler.Scheduler,
) (Stats, error) {
	var stats Stats

	// Scanned triples in first-seen order; a duplicate triple within one
	// scan (an adapter bug) is resolved by the later occurrence winning.
	var order []catalog.Triple
	var scanned = make(map[catalog.Triple]scannedCard)
	var sourcePaths []string
	var suspended = make(map[string]bool)

	for i := range sources {
		var src = &sources[i]
		sourcePaths = append(sourcePaths, src.Path)
		suspended[src.Path] = src.Config.GetBool("suspended")

		for j := range src.Cards {
			var parsed = &src.Cards[j]
			var triple = catalog.Triple{SourcePath: src.Path, CardKey: parsed.Key, Adapter: src.Adapter}
			if _, ok := scanned[triple]; !ok {
				order = append(order, triple)
			}
			scanned[triple] = scannedCard{
				source: src,
				card: &catalog.Card{
					SourcePath:  src.Path,
					CardKey:     parsed.Key,
					Adapter:     src.Adapter,
					Content:     parsed.Content,
					DisplayText: parsed.DisplayText,
					Gradable:    parsed.Gradable,
					SourceLine:  parsed.SourceLine,
				},
				tags: parsed.Tags,
			}
		}
	}

	var files, dirs = classifyPaths(scannedPaths)

	var tx, err = cat.Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	existing, err := cat.LoadInScope(tx, sourcePaths, files, dirs)
	if err != nil {
		return stats, err
	}

	for _, triple := range order {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("sync aborted: %w", err)
		}
		var sc = scanned[triple]

		row, exists := existing[triple]
		delete(existing, triple)

		switch {
		case !exists:
			err = insertCard(cat, tx, sc, suspended[triple.SourcePath], sched)
			stats.New++
			syncOutcomes.WithLabelValues("new").Inc()
		case row.ContentHash == mustFingerprint(sc.card):
			err = refreshUnchanged(cat, tx, row.ID, sc)
			stats.Unchanged++
			syncOutcomes.WithLabelValues("unchanged").Inc()
		default:
			err = replaceCard(cat, tx, row, sc, sched)
			stats.Updated++
			syncOutcomes.WithLabelValues("updated").Inc()
		}
		if err != nil {
			return stats, fmt.Errorf("syncing card %q of %q: %w", triple.CardKey, triple.SourcePath, err)
		}
	}

	// Deletion sweep: in-scope rows not matched by any scanned triple.
	var swept []catalog.ScopedCard
	for _, row := range existing {
		swept = append(swept, row)
	}
	sort.Slice(swept, func(i, j int) bool { return swept[i].ID < swept[j].ID })

	for _, row := range swept {
		if err = deleteCard(cat, tx, row.ID, sched); err != nil {
			return stats, fmt.Errorf("deleting card %d: %w", row.ID, err)
		}
		stats.Deleted++
		syncOutcomes.WithLabelValues("deleted").Inc()
	}

	if err = syncRelations(cat, tx, sources); err != nil {
		return stats, err
	}
	if err = tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing sync: %w", err)
	}
	return stats, nil
}

// classifyPaths splits the scanned inputs into file and directory paths,
// which scope the sync differently: a file path matches sources exactly
// while a directory path matches by prefix. Inputs are resolved to absolute
// paths first, since that's how the scanner records sources.
func classifyPaths(paths []string) (files, dirs []string) {
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, strings.TrimSuffix(p, "/"))
		} else {
			files = append(files, p)
		}
	}
	return files, dirs
}

func mustFingerprint(card *catalog.Card) string {
	if card.ContentHash == "" {
		// Fingerprinting only fails on unmarshalable content, which
		// adapters cannot produce through content.Value.
		card.ContentHash, _ = card.Content.Fingerprint()
	}
	return card.ContentHash
}

func insertCard(cat *catalog.Catalog, tx *sql.Tx, sc scannedCard, suspended bool, sched scheduler.Scheduler) error {
	var status = catalog.StatusActive
	if suspended {
		status = catalog.StatusInactive
	}

	var id, err = cat.InsertCard(tx, sc.card, status)
	if err != nil {
		return err
	}
	if err = cat.SyncTags(tx, id, sc.tags); err != nil {
		return err
	}

	if sched != nil && status == catalog.StatusActive {
		if rec, err := sched.OnCardCreated(id); err != nil {
			log.WithFields(log.Fields{"card": id, "error": err}).
				Warn("scheduler OnCardCreated failed")
		} else if rec != nil {
			if err = cat.UpsertRecommendation(tx, sched.ID(), *rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshUnchanged updates presentation-only columns of an unmatched-hash
// card, which may have moved within its source without a content change.
func refreshUnchanged(cat *catalog.Catalog, tx *sql.Tx, id int64, sc scannedCard) error {
	if err := cat.RefreshPresentation(tx, id, sc.card.DisplayText, sc.card.SourceLine); err != nil {
		return err
	}
	return cat.SyncTags(tx, id, sc.tags)
}

// replaceCard retires the existing row and inserts its successor, linked by
// an is_replaced_by relation. A user suspension survives the edit; any
// other prior status resurfaces as active, even for suspended sources.
func replaceCard(cat *catalog.Catalog, tx *sql.Tx, row catalog.ScopedCard, sc scannedCard, sched scheduler.Scheduler) error {
	var newStatus = catalog.StatusActive
	if row.Status == catalog.StatusInactive {
		newStatus = catalog.StatusInactive
	}

	if err := cat.UpdateStatus(tx, row.ID, catalog.StatusDeleted); err != nil {
		return err
	}
	if err := cat.DeleteRecommendations(tx, row.ID); err != nil {
		return err
	}
	if err := cat.RewriteReplacedKey(tx, row.ID); err != nil {
		return err
	}

	var newID, err = cat.InsertCard(tx, sc.card, newStatus)
	if err != nil {
		return err
	}
	if err = cat.InsertRelation(tx, row.ID, newID, catalog.RelationReplacedBy); err != nil {
		return err
	}
	if err = cat.SyncTags(tx, newID, sc.tags); err != nil {
		return err
	}

	if sched != nil && newStatus == catalog.StatusActive {
		if rec, err := sched.OnCardReplaced(row.ID, newID); err != nil {
			log.WithFields(log.Fields{"old": row.ID, "new": newID, "error": err}).
				Warn("scheduler OnCardReplaced failed")
		} else if rec != nil {
			if err = cat.UpsertRecommendation(tx, sched.ID(), *rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteCard(cat *catalog.Catalog, tx *sql.Tx, id int64, sched scheduler.Scheduler) error {
	if err := cat.UpdateStatus(tx, id, catalog.StatusDeleted); err != nil {
		return err
	}
	if err := cat.DeleteRecommendations(tx, id); err != nil {
		return err
	}
	if sched != nil {
		if err := sched.OnCardStatusChanged(id, catalog.StatusDeleted); err != nil {
			log.WithFields(log.Fields{"card": id, "error": err}).
				Warn("scheduler OnCardStatusChanged failed")
		}
	}
	return nil
}

// syncRelations inserts adapter-declared relations whose endpoints both
// resolve to active cards. Unresolvable targets are dropped silently: the
// author may reference a card that doesn't exist yet, and a later sync
// heals the edge.
func syncRelations(cat *catalog.Catalog, tx *sql.Tx, sources []scanner.Source) error {
	for i := range sources {
		var src = &sources[i]
		for j := range src.Cards {
			var parsed = &src.Cards[j]
			if len(parsed.Relations) == 0 {
				continue
			}

			var id, err = cat.ResolveActive(tx, src.Path, parsed.Key, src.Adapter)
			if err == catalog.ErrNotFound {
				continue
			} else if err != nil {
				return err
			}

			for _, rel := range parsed.Relations {
				var targetSource = rel.TargetSource
				if targetSource == "" {
					targetSource = src.Path
				}
				targetID, err := cat.ResolveActiveTarget(tx, targetSource, rel.TargetKey)
				if err == catalog.ErrNotFound {
					continue
				} else if err != nil {
					return err
				}
				if err = cat.InsertRelation(tx, id, targetID, rel.Type); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
