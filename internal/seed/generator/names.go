package generator

import (
	"fmt"
	"math/rand"
	"strings"
)

var firstNames = []string{
	"Ada", "Bruno", "Clara", "Dmitri", "Elena", "Felix", "Greta", "Hugo",
	"Iris", "Jonas", "Kira", "Lucas", "Mara", "Nadia", "Otto", "Priya",
	"Quinn", "Rosa", "Sven", "Tessa", "Umar", "Vera", "Wendell", "Xenia",
	"Yara", "Zeno",
}

var lastNames = []string{
	"Almeida", "Bishop", "Castellanos", "Duarte", "Eriksen", "Fontaine",
	"Guerrero", "Hartmann", "Ibarra", "Jensen", "Kowalski", "Lindqvist",
	"Moreau", "Nakamura", "Okafor", "Pereira", "Quintana", "Rocha",
	"Santos", "Tanaka", "Uribe", "Vargas", "Winters", "Xu", "Yamada",
	"Zielinski",
}

var postPhrases = []string{
	"Just shipped a new side project.",
	"Anyone else watching the meteor shower tonight?",
	"Coffee number three and it is not even noon.",
	"Reading a great book about distributed systems.",
	"Finally fixed that flaky test.",
	"Weekend hike photos coming soon.",
	"Hot take: offset pagination is fine for most apps.",
	"Learning to bake sourdough, wish me luck.",
	"The library has no record of this bug.",
	"Today's commute soundtrack was excellent.",
}

var replyPhrases = []string{
	"Completely agree with this.",
	"Have you tried turning it off and on again?",
	"This made my day.",
	"Strong disagree, but well argued.",
	"Saving this for later.",
	"Can you share more details?",
}

// namePool hands out person names with unique usernames.
type namePool struct {
	rng  *rand.Rand
	used map[string]bool
}

func newNamePool(rng *rand.Rand) *namePool {
	return &namePool{rng: rng, used: make(map[string]bool)}
}

// nextPerson returns a full name and a unique username derived from it.
func (p *namePool) nextPerson() (fullName, username string) {
	first := firstNames[p.rng.Intn(len(firstNames))]
	last := lastNames[p.rng.Intn(len(lastNames))]
	fullName = first + " " + last

	username = strings.ToLower(first + "." + last)
	for p.used[username] {
		username = fmt.Sprintf("%s%d", strings.ToLower(first+"."+last), p.rng.Intn(1000))
	}
	p.used[username] = true
	return fullName, username
}

func (p *namePool) postText() string {
	return postPhrases[p.rng.Intn(len(postPhrases))]
}

func (p *namePool) replyText() string {
	return replyPhrases[p.rng.Intn(len(replyPhrases))]
}
