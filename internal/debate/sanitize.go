package debate

import (
	"regexp"
	"strings"

	"github.com/spigell/recruit-panel/internal/prompt"
)

// NeutralContinuation replaces an utterance that only repeated settled topics.
const NeutralContinuation = "Dat punt is al besproken; ik sluit me aan bij de eerdere opmerkingen en wil vooral horen hoe de anderen de overige risico's zien."

var (
	scoreLine   = regexp.MustCompile(`(?im)^\s*[-*•]*\s*\**\s*(score|cijfer)\s*\**\s*[:=].*$`)
	scoreInline = regexp.MustCompile(`(?i)\(?\b(score|cijfer)\s*[:=]?\s*\d+(?:[.,]\d+)?\s*(?:/\s*10)?\)?`)
	sublabel    = regexp.MustCompile(`(?i)\**\b(evaluatie|sterke punten|aandachtspunten|zwakke punten|conclusie)\b\**\s*:\s*\**\s*`)
	spaces      = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n{2,}`)
	looseStop   = regexp.MustCompile(` +([.,!?])`)
	verdictLine = regexp.MustCompile(`(?i)eindoordeel\s*:\s*\**\s*(afwijzen|geschikt|verdere evaluatie nodig)`)
)

// stripSpeaker removes leading "Name:" prefixes for any of the given names.
func stripSpeaker(text string, names ...string) string {
	text = strings.TrimSpace(text)
	for changed := true; changed; {
		changed = false
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			candidate := strings.TrimLeft(text, "*_ ")
			if len(candidate) <= len(name) || !strings.EqualFold(candidate[:len(name)], name) {
				continue
			}
			rest := strings.TrimLeft(candidate[len(name):], "*_ ")
			if strings.HasPrefix(rest, ":") {
				text = strings.TrimSpace(rest[1:])
				changed = true
			}
		}
	}
	return text
}

// stripEvaluationMarkup drops score lines, inline scores and evaluation sublabels.
func stripEvaluationMarkup(text string) string {
	text = scoreLine.ReplaceAllString(text, "")
	text = scoreInline.ReplaceAllString(text, "")
	text = sublabel.ReplaceAllString(text, "")
	return tidy(text)
}

// dropRepeatedTopics removes sentences touching mentioned topics. It reports
// whether anything was removed.
func dropRepeatedTopics(text string, state *ConversationState) (string, bool) {
	if state == nil || len(state.mentioned) == 0 {
		return text, false
	}

	var kept []string
	removed := false
	for _, sentence := range splitSentences(text) {
		if state.repeats(sentence) {
			removed = true
			continue
		}
		kept = append(kept, sentence)
	}
	return strings.Join(kept, " "), removed
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace, so
// amounts like "€5.000" stay in one sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !strings.ContainsRune(".!?", rune(text[i])) {
			continue
		}
		end := i + 1
		for end < len(text) && strings.ContainsRune(".!?", rune(text[end])) {
			end++
		}
		if end < len(text) && !isSpace(text[end]) {
			i = end - 1
			continue
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
		i = end - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// sanitizePersona cleans one persona utterance against the state snapshot the
// persona was prompted with. The flag reports whether repeated topics were cut.
func sanitizePersona(text string, names []string, state *ConversationState) (string, bool) {
	text = stripSpeaker(text, names...)
	text = stripEvaluationMarkup(text)

	text, removed := dropRepeatedTopics(text, state)
	if text = tidy(text); text == "" {
		return NeutralContinuation, removed
	}
	return text, removed
}

// sanitizeModerator strips the speaker prefix and any scores.
func sanitizeModerator(text string) string {
	return stripEvaluationMarkup(stripSpeaker(text, ModeratorRole))
}

// ensureVerdict returns text carrying an explicit final verdict and the
// verdict itself. A summary without one gets the cautious verdict appended.
func ensureVerdict(text string) (string, string) {
	text = strings.TrimSpace(text)
	if m := verdictLine.FindStringSubmatch(text); m != nil {
		for _, v := range prompt.Verdicts {
			if strings.EqualFold(m[1], v) {
				return text, v
			}
		}
	}
	if text != "" && !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "?") && !strings.HasSuffix(text, "!") {
		text += "."
	}
	return strings.TrimSpace(text + " Eindoordeel: " + prompt.VerdictUnclear + "."), prompt.VerdictUnclear
}

func tidy(text string) string {
	text = spaces.ReplaceAllString(text, " ")
	text = looseStop.ReplaceAllString(text, "$1")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n")
	return strings.TrimSpace(text)
}
