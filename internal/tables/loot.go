package tables

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
)

// TreasureLevel selects the loot tier.
type TreasureLevel string

const (
	TreasureLow       TreasureLevel = "low"
	TreasureMedium    TreasureLevel = "medium"
	TreasureHigh      TreasureLevel = "high"
	TreasureLegendary TreasureLevel = "legendary"
)

// ErrInvalidTreasureLevel indicates an unknown treasure level.
var ErrInvalidTreasureLevel = errors.New("invalid treasure level, use 'low', 'medium', 'high', or 'legendary'")

var (
	commonItems   = []string{"Potion of Healing", "Torch", "Rope", "Bedroll", "Rations", "Waterskin"}
	uncommonItems = []string{"Potion of Greater Healing", "Scroll of Magic Missile", "Silver dagger", "Fine clothing"}
	rareItems     = []string{"Potion of Superior Healing", "Scroll of Fireball", "Bag of Holding", "Boots of Elvenkind"}
	veryRareItems = []string{"Potion of Supreme Healing", "Wand of Fireballs", "Ring of Protection", "Cloak of Displacement"}
	legendary     = []string{"Staff of Power", "Holy Avenger", "Vorpal Sword", "Ring of Three Wishes"}
)

// lootTier describes how one treasure level is generated.
type lootTier struct {
	goldMin, goldMax   int
	itemsMin, itemsMax int
	pool               []string
	// bonus, when set, always contributes one extra item.
	bonus []string
}

var lootTiers = map[TreasureLevel]lootTier{
	TreasureLow:       {goldMin: 5, goldMax: 50, itemsMin: 0, itemsMax: 2, pool: commonItems},
	TreasureMedium:    {goldMin: 50, goldMax: 200, itemsMin: 1, itemsMax: 3, pool: concat(commonItems, uncommonItems)},
	TreasureHigh:      {goldMin: 200, goldMax: 1000, itemsMin: 2, itemsMax: 4, pool: concat(uncommonItems, rareItems), bonus: veryRareItems},
	TreasureLegendary: {goldMin: 1000, goldMax: 5000, itemsMin: 2, itemsMax: 4, pool: concat(rareItems, veryRareItems), bonus: legendary},
}

// Loot is a generated treasure haul.
type Loot struct {
	Level TreasureLevel
	Gold  int
	Items []string
}

// ParseTreasureLevel normalizes a treasure level; empty means medium.
func ParseTreasureLevel(value string) (TreasureLevel, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return TreasureMedium, nil
	}
	level := TreasureLevel(value)
	if _, ok := lootTiers[level]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTreasureLevel, value)
	}
	return level, nil
}

// GenerateLoot rolls gold and items for the treasure level.
func GenerateLoot(level TreasureLevel, source dice.Source) (Loot, error) {
	if source == nil {
		return Loot{}, dice.ErrMissingSource
	}
	tier, ok := lootTiers[level]
	if !ok {
		return Loot{}, fmt.Errorf("%w: %q", ErrInvalidTreasureLevel, level)
	}

	loot := Loot{
		Level: level,
		Gold:  dice.Between(source, tier.goldMin, tier.goldMax),
		Items: []string{},
	}
	count := dice.Between(source, tier.itemsMin, tier.itemsMax)
	for i := 0; i < count; i++ {
		loot.Items = append(loot.Items, pick(source, tier.pool))
	}
	if len(tier.bonus) > 0 {
		loot.Items = append(loot.Items, pick(source, tier.bonus))
	}
	return loot, nil
}

func concat(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}
