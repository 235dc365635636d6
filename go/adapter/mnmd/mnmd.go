// Package mnmd implements the mnemonic-markdown adapter: cloze deletion
// cards parsed from {{...}} markers in markdown paragraphs.
//
// Marker grammar:
//
//	{{answer}}              basic cloze
//	{{answer::hint}}        with hint
//	{{1::answer}}           grouped: all markers of group 1 blank together
//	{{1.1::answer}}         sequence step: progressive reveal
//	{{answer}}[-1,2]        scope: include 1 block before and 2 after
//
// Blocks are split on blank lines; a `> ?` line opens an explicit context
// block. Non-sequence cards of one block are mutually exclusive; consecutive
// sequence steps are linked by is_followed_by_on_correct.
package mnmd

import (
	"fmt"
	"sort"

	"github.com/srnotes/sr/go/adapter"
	"github.com/srnotes/sr/go/content"
)

func init() {
	adapter.Register(Adapter{})
}

// Adapter is the mnmd adapter.
type Adapter struct{}

// Name implements adapter.Adapter.
func (Adapter) Name() string { return "mnmd" }

// Parse implements adapter.Adapter.
func (a Adapter) Parse(text, path string, config adapter.SourceConfig) ([]adapter.ParsedCard, error) {
	var _, body, bodyStart = adapter.SplitFrontmatter(text)
	var tags = config.Tags()
	var blocks = segmentBlocks(body, bodyStart)

	var all []adapter.ParsedCard
	for blockIdx, blk := range blocks {
		var clozes = findClozes(blk.text)
		if len(clozes) == 0 {
			continue
		}
		all = append(all, a.blockCards(blocks, blockIdx, clozes, tags)...)
	}
	return all, nil
}

// blockCards builds the cards and relations of one block.
func (a Adapter) blockCards(blocks []block, blockIdx int, clozes []cloze, tags []string) []adapter.ParsedCard {
	var blk = blocks[blockIdx]

	// Classify cloze indices: ungrouped, grouped by id, or sequence steps
	// grouped by their base id. Order of first appearance is preserved.
	var ungrouped []int
	var groups = make(map[string][]int)
	var groupOrder []string
	var sequences = make(map[string][]seqStep)
	var seqOrder []string

	for i, c := range clozes {
		switch {
		case c.id == "":
			ungrouped = append(ungrouped, i)
		case dottedRe.MatchString(c.id):
			var base = c.id[:indexDot(c.id)]
			if _, ok := sequences[base]; !ok {
				seqOrder = append(seqOrder, base)
			}
			sequences[base] = append(sequences[base], seqStep{id: c.id, idx: i})
		case numericRe.MatchString(c.id):
			if _, ok := groups[c.id]; !ok {
				groupOrder = append(groupOrder, c.id)
			}
			groups[c.id] = append(groups[c.id], i)
		default:
			ungrouped = append(ungrouped, i)
		}
	}
	for _, base := range seqOrder {
		var steps = sequences[base]
		sort.SliceStable(steps, func(i, j int) bool { return stepLess(steps[i].id, steps[j].id) })
	}

	var cards []adapter.ParsedCard
	var byKey = make(map[string]int) // key -> index into cards
	var nonSeqKeys []string

	var emit = func(key, cardText string) {
		byKey[key] = len(cards)
		cards = append(cards, adapter.ParsedCard{
			Key:         key,
			Content:     content.FromInterface(map[string]interface{}{"text": cardText}),
			DisplayText: adapter.Truncate(cardText, 200),
			Gradable:    true,
			SourceLine:  blk.startLine,
			Tags:        append([]string(nil), tags...),
		})
	}

	// Ungrouped: one card per cloze.
	for _, idx := range ungrouped {
		var c = clozes[idx]
		var cardText = buildText(blk.text, clozes, map[int]bool{idx: true})
		cardText = applyScope(cardText, blocks, blockIdx, c.scopeBefore, c.scopeAfter)

		var key = fmt.Sprintf("cloze_L%d_C%d", blk.startLine, idx)
		emit(key, cardText)
		nonSeqKeys = append(nonSeqKeys, key)
	}

	// Grouped: one card per group, all members blanked together.
	for _, gid := range groupOrder {
		var indices = groups[gid]
		var active = make(map[int]bool, len(indices))
		for _, i := range indices {
			active[i] = true
		}
		var first = clozes[indices[0]]
		var cardText = buildText(blk.text, clozes, active)
		cardText = applyScope(cardText, blocks, blockIdx, first.scopeBefore, first.scopeAfter)

		var key = "group_" + gid
		emit(key, cardText)
		nonSeqKeys = append(nonSeqKeys, key)
	}

	// Sequences: step k reveals prior steps as plain text and keeps the
	// current and later steps blanked, giving progressive reveal.
	for _, base := range seqOrder {
		var steps = sequences[base]
		var stepKeys []string

		for k := range steps {
			var active = make(map[int]bool)
			for j := k; j < len(steps); j++ {
				active[steps[j].idx] = true
			}
			var key = fmt.Sprintf("seq_%s_%s", base, steps[k].id)
			emit(key, buildText(blk.text, clozes, active))
			stepKeys = append(stepKeys, key)
		}
		for i := 0; i+1 < len(stepKeys); i++ {
			var card = &cards[byKey[stepKeys[i]]]
			card.Relations = append(card.Relations, adapter.Relation{
				TargetKey: stepKeys[i+1],
				Type:      "is_followed_by_on_correct",
			})
		}
	}

	// Non-sequence cards of one block suppress each other within a session.
	for i, keyA := range nonSeqKeys {
		for _, keyB := range nonSeqKeys[i+1:] {
			var card = &cards[byKey[keyA]]
			card.Relations = append(card.Relations, adapter.Relation{
				TargetKey: keyB,
				Type:      "mutually_exclusive",
			})
		}
	}
	return cards
}

type seqStep struct {
	id  string
	idx int
}

func indexDot(s string) int {
	for i := range s {
		if s[i] == '.' {
			return i
		}
	}
	return len(s)
}
