package tables

import "github.com/louisbranch/dungeonkit/internal/dice"

var (
	helloSynonyms = []string{"Hello", "Hi", "Greetings", "Hey", "Salutations", "Welcome", "Howdy", "Good day", "Hiya"}
	worldSynonyms = []string{"world", "planet", "earth", "globe", "universe", "everyone", "folks", "friends", "people", "community"}
)

// Greeting is a randomized "Hello, world!" phrase.
type Greeting struct {
	Phrase string
	Hello  string
	World  string
}

// GenerateGreeting picks a synonym for each half of the phrase.
func GenerateGreeting(source dice.Source) (Greeting, error) {
	if source == nil {
		return Greeting{}, dice.ErrMissingSource
	}
	hello := pick(source, helloSynonyms)
	world := pick(source, worldSynonyms)
	return Greeting{
		Phrase: hello + ", " + world + "!",
		Hello:  hello,
		World:  world,
	}, nil
}
