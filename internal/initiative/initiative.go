// Package initiative rolls and orders combat initiative.
package initiative

import (
	"errors"
	"sort"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
)

// DefaultName is used for participants submitted without a name.
const DefaultName = "Unknown"

// initiativeDie is the die rolled by every participant.
const initiativeDie = 20

// ErrNoParticipants indicates an initiative request had nobody to roll for.
var ErrNoParticipants = errors.New("at least one participant must be provided")

// Participant is one combatant and its initiative modifier.
type Participant struct {
	Name     string
	Modifier int
}

// Entry is one participant's rolled initiative.
type Entry struct {
	Name     string
	Roll     int
	Modifier int
	Total    int
}

// Roll rolls a d20 plus modifier for each participant and returns entries
// ordered by total, highest first. Ties keep the submitted order.
func Roll(participants []Participant, source dice.Source) ([]Entry, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	entries := make([]Entry, 0, len(participants))
	for _, participant := range participants {
		roll, err := dice.RollDie(source, initiativeDie)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(participant.Name)
		if name == "" {
			name = DefaultName
		}
		entries = append(entries, Entry{
			Name:     name,
			Roll:     roll,
			Modifier: participant.Modifier,
			Total:    roll + participant.Modifier,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})
	return entries, nil
}
