package tables

import (
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ability scores are drawn uniformly from this range.
const (
	minAbilityScore = 8
	maxAbilityScore = 16
)

const defaultNamePool = "default"

var (
	npcRaces = []string{"Human", "Elf", "Dwarf", "Halfling", "Gnome", "Half-Elf", "Half-Orc", "Dragonborn", "Tiefling"}

	npcOccupations = []string{"Shopkeeper", "Blacksmith", "Guard", "Farmer", "Innkeeper", "Priest", "Noble", "Beggar", "Merchant", "Scholar"}

	npcTraits = []string{"Friendly", "Suspicious", "Grumpy", "Cheerful", "Nervous", "Confident", "Shy", "Arrogant", "Humble", "Eccentric"}

	firstNames = map[string][]string{
		"Human":         {"John", "Mary", "William", "Sarah", "James", "Elizabeth"},
		"Elf":           {"Legolas", "Arwen", "Elrond", "Galadriel", "Thranduil", "Tauriel"},
		"Dwarf":         {"Gimli", "Thorin", "Balin", "Dwalin", "Gloin", "Durin"},
		"Halfling":      {"Frodo", "Bilbo", "Sam", "Pippin", "Merry", "Rosie"},
		defaultNamePool: {"Varis", "Thorn", "Lyra", "Krag", "Elwyn", "Dorian"},
	}

	lastNames = map[string][]string{
		"Human":         {"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller"},
		"Elf":           {"Greenleaf", "Evenstar", "Starseeker", "Moonshadow", "Sunstrider"},
		"Dwarf":         {"Ironforge", "Stonebeard", "Goldhand", "Hammerfall", "Battleaxe"},
		"Halfling":      {"Baggins", "Gamgee", "Brandybuck", "Took", "Underhill"},
		defaultNamePool: {"Blackwood", "Silverhand", "Stormborn", "Fireheart", "Nightwalker"},
	}
)

// Abilities are the six ability scores of a generated NPC.
type Abilities struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Wisdom       int
	Charisma     int
}

// NPC is a generated non-player character.
type NPC struct {
	Name       string
	Race       string
	Occupation string
	Trait      string
	Abilities  Abilities
}

// GenerateNPC builds a random NPC. Empty race or occupation are chosen at
// random; a provided race is title-cased and picks its own name pool when one
// exists.
func GenerateNPC(race, occupation string, source dice.Source) (NPC, error) {
	if source == nil {
		return NPC{}, dice.ErrMissingSource
	}

	race = normalizeTitle(race)
	if race == "" {
		race = pick(source, npcRaces)
	}
	occupation = normalizeTitle(occupation)
	if occupation == "" {
		occupation = pick(source, npcOccupations)
	}

	first, ok := firstNames[race]
	if !ok {
		first = firstNames[defaultNamePool]
	}
	last, ok := lastNames[race]
	if !ok {
		last = lastNames[defaultNamePool]
	}
	name := pick(source, first) + " " + pick(source, last)

	return NPC{
		Name:       name,
		Race:       race,
		Occupation: occupation,
		Trait:      pick(source, npcTraits),
		Abilities: Abilities{
			Strength:     abilityScore(source),
			Dexterity:    abilityScore(source),
			Constitution: abilityScore(source),
			Intelligence: abilityScore(source),
			Wisdom:       abilityScore(source),
			Charisma:     abilityScore(source),
		},
	}, nil
}

func abilityScore(source dice.Source) int {
	return dice.Between(source, minAbilityScore, maxAbilityScore)
}

// normalizeTitle title-cases free-form input. Casers are stateful, so one is
// built per call.
func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(value))
}
