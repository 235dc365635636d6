package mnmd

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	clozeRe          = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	clozeWithScopeRe = regexp.MustCompile(`\{\{([^}]+)\}\}(?:\[(-?\d+)?(?:,(-?\d+))?\])?`)
	numericRe        = regexp.MustCompile(`^\d+$`)
	dottedRe         = regexp.MustCompile(`^\d+\.\d+$`)
	contextStripRe   = regexp.MustCompile(`^>\s?`)
)

// cloze is one parsed {{...}} marker within a block.
type cloze struct {
	id          string // "" = ungrouped, "1" = grouped, "1.1" = sequence step
	answer      string
	hint        string
	scopeBefore int
	scopeAfter  int
	matchStart  int // byte offsets within the block text
	matchEnd    int
}

// parseClozeInner splits the inside of {{...}} into (id, answer, hint).
// With two `::` segments the first is an id only when it's numeric or
// dotted-numeric; otherwise the segments are answer::hint.
func parseClozeInner(inner string) (id, answer, hint string) {
	var parts = strings.Split(inner, "::")
	switch len(parts) {
	case 1:
		return "", strings.TrimSpace(parts[0]), ""
	case 2:
		var first = strings.TrimSpace(parts[0])
		var second = strings.TrimSpace(parts[1])
		if numericRe.MatchString(first) || dottedRe.MatchString(first) {
			return first, second, ""
		}
		return "", first, second
	default:
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	}
}

// block is one paragraph or context block of the source body.
type block struct {
	text      string
	startLine int
	isContext bool
}

// segmentBlocks splits the body into paragraph blocks on blank lines.
// `> ?` opens a context block whose quoted lines are unwrapped.
func segmentBlocks(body string, bodyStartLine int) []block {
	var lines = strings.Split(body, "\n")
	var blocks []block

	var current []string
	var currentStart = bodyStartLine
	var inContext bool

	var flush = func() {
		if len(current) > 0 {
			var text = strings.Join(current, "\n")
			if strings.TrimSpace(text) != "" {
				blocks = append(blocks, block{text: text, startLine: currentStart, isContext: inContext})
			}
			current = nil
		}
		inContext = false
	}

	for i, line := range lines {
		var absLine = bodyStartLine + i
		var stripped = strings.TrimSpace(line)

		if stripped == "> ?" || stripped == ">?" {
			flush()
			inContext = true
			currentStart = absLine
			continue
		}

		if inContext {
			if strings.HasPrefix(stripped, "> ") || stripped == ">" {
				if stripped == ">" {
					current = append(current, "")
				} else {
					current = append(current, contextStripRe.ReplaceAllString(line, ""))
				}
				continue
			}
			flush()
		}

		if stripped == "" {
			if len(current) > 0 {
				flush()
			}
		} else {
			if len(current) == 0 {
				currentStart = absLine
			}
			current = append(current, line)
		}
	}
	flush()
	return blocks
}

// findClozes extracts every cloze marker of a block, with scope modifiers.
func findClozes(blockText string) []cloze {
	var out []cloze
	for _, m := range clozeWithScopeRe.FindAllStringSubmatchIndex(blockText, -1) {
		var inner = blockText[m[2]:m[3]]
		var id, answer, hint = parseClozeInner(inner)

		var c = cloze{
			id: id, answer: answer, hint: hint,
			matchStart: m[0], matchEnd: m[1],
		}
		// A single scope number means "before" when negative, "after"
		// when positive; a pair is (before, after).
		if m[4] != -1 {
			var val, _ = strconv.Atoi(blockText[m[4]:m[5]])
			if val < 0 {
				c.scopeBefore = -val
			} else {
				c.scopeAfter = val
			}
		}
		if m[6] != -1 {
			c.scopeAfter, _ = strconv.Atoi(blockText[m[6]:m[7]])
		}
		out = append(out, c)
	}
	return out
}

// buildText rebuilds a block's text keeping the clozes in active as markers
// (to be blanked or highlighted by the renderer) and flattening all others
// to their plain answers. Scope modifiers never survive into card text.
func buildText(blockText string, clozes []cloze, active map[int]bool) string {
	var b strings.Builder
	var lastEnd int
	for i, c := range clozes {
		b.WriteString(blockText[lastEnd:c.matchStart])
		if active[i] {
			if c.hint != "" {
				b.WriteString("{{" + c.answer + "::" + c.hint + "}}")
			} else {
				b.WriteString("{{" + c.answer + "}}")
			}
		} else {
			b.WriteString(c.answer)
		}
		lastEnd = c.matchEnd
	}
	b.WriteString(blockText[lastEnd:])
	return b.String()
}

// applyScope widens card text with neighboring blocks per scope modifiers.
func applyScope(cardText string, blocks []block, blockIdx, scopeBefore, scopeAfter int) string {
	if scopeBefore == 0 && scopeAfter == 0 {
		return cardText
	}
	var parts []string
	for i := max(0, blockIdx-scopeBefore); i < blockIdx; i++ {
		parts = append(parts, blocks[i].text)
	}
	parts = append(parts, cardText)
	for i := blockIdx + 1; i < min(len(blocks), blockIdx+1+scopeAfter); i++ {
		parts = append(parts, blocks[i].text)
	}
	return strings.Join(parts, "\n\n")
}

// stepLess orders dotted sequence ids like "1.2" numerically per part.
func stepLess(a, b string) bool {
	var ap = strings.Split(a, ".")
	var bp = strings.Split(b, ".")
	for i := 0; i < len(ap) && i < len(bp); i++ {
		var an, _ = strconv.Atoi(ap[i])
		var bn, _ = strconv.Atoi(bp[i])
		if an != bn {
			return an < bn
		}
	}
	return len(ap) < len(bp)
}
