package debate

import (
	"fmt"
	"strings"

	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/utils"
)

const (
	snapshotChars = 150
	digestChars   = 120
	snapshotPeers = 2
	digestEntries = 3
)

type stage struct {
	name        string
	instruction string
	final       bool
}

var moderatorStages = []stage{
	{name: "moderator_opening", instruction: "Open het gesprek: introduceer in één zin de kandidaat en de functie en stel het panel een eerste open vraag."},
	{name: "moderator_guidance", instruction: "Stuur het gesprek bij: benoem een punt waarover het panel verschilt en stel daarover een gerichte vraag."},
	{name: "moderator_deepening", instruction: "Verdiep het gesprek: vraag naar het grootste risico bij deze kandidaat en wat voor het panel de doorslag geeft."},
	{name: "moderator_summary", instruction: "Rond het gesprek af met een korte samenvatting en een expliciet eindoordeel.", final: true},
}

// personaTurn renders the user message for one persona turn. transcript is the
// snapshot taken before the round started.
func personaTurn(transcript Transcript, self Participant, state *ConversationState, hasCompanyNote bool) string {
	var b strings.Builder

	b.WriteString("Gesprek tot nu toe:\n")
	for _, e := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", e.Role, e.Content)
	}

	fmt.Fprintf(&b, "\nJouw beurt, %s.\n", self.Persona.Label())

	if peers := recentPeers(transcript, self.Persona.Label()); len(peers) > 0 {
		b.WriteString("Recente bijdragen van anderen:\n")
		for _, e := range peers {
			fmt.Fprintf(&b, "- %s: %s\n", e.Role, utils.TruncateForLog(e.Content, snapshotChars))
		}
	}

	if line, ok := pendingModeratorLine(transcript); ok {
		fmt.Fprintf(&b, "Reageer op de moderator: %s\n", line)
	}

	if topics := state.Topics(); len(topics) > 0 {
		names := make([]string, len(topics))
		for i, t := range topics {
			names[i] = string(t)
		}
		fmt.Fprintf(&b, "Deze onderwerpen zijn al genoemd; herhaal ze niet: %s.\n", strings.Join(names, ", "))
	} else if hasCompanyNote {
		b.WriteString("Je mag de notitie van het bureau (salaris, beschikbaarheid, opzegtermijn) hooguit één keer kort noemen.\n")
	}

	b.WriteString(prompt.Focus(self.Persona.Category))
	return b.String()
}

// recentPeers returns the last utterance of up to two other personas, newest first.
func recentPeers(transcript Transcript, self string) []Entry {
	seen := map[string]struct{}{self: {}, ModeratorRole: {}}
	var out []Entry
	for i := len(transcript) - 1; i >= 0 && len(out) < snapshotPeers; i-- {
		e := transcript[i]
		if _, skip := seen[e.Role]; skip {
			continue
		}
		seen[e.Role] = struct{}{}
		out = append(out, e)
	}
	return out
}

// pendingModeratorLine returns the latest moderator utterance when no persona
// has spoken after it.
func pendingModeratorLine(transcript Transcript) (string, bool) {
	if len(transcript) == 0 {
		return "", false
	}
	last := transcript[len(transcript)-1]
	if last.Role != ModeratorRole {
		return "", false
	}
	return last.Content, true
}

// moderatorTurn renders the coarse status the moderator works from.
func moderatorTurn(transcript Transcript, st stage) string {
	personaTurns, moderatorTurns := 0, 0
	for _, e := range transcript {
		if e.Role == ModeratorRole {
			moderatorTurns++
		} else {
			personaTurns++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %d bijdragen van panelleden en %d beurten van de moderator tot nu toe.\n", personaTurns, moderatorTurns)

	if len(transcript) > 0 {
		b.WriteString("Laatste berichten:\n")
		from := max(len(transcript)-digestEntries, 0)
		for _, e := range transcript[from:] {
			fmt.Fprintf(&b, "- %s: %s\n", e.Role, utils.TruncateForLog(e.Content, digestChars))
		}
	}

	b.WriteString(st.instruction)
	return b.String()
}
