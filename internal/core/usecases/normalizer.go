package usecases

import "strings"

// connectorWords are prepositions that glue natural-language location phrases
// together ("Prado Museum in Madrid"). They are removed wherever they appear
// after the first word. Name particles ("de", "del", "of", "la") are not
// connectors: "Rue de Buci" must come out unchanged.
var connectorWords = wordSet(
	"en", "desde", "hacia", // es
	"in", "from", "to", "toward", "towards", // en
	"dans", "depuis", "vers", // fr
)

// leadingFiller is stripped only from the start of a query. It always contains
// connectorWords so that the first surviving word is never a connector.
var leadingFiller = wordSet(
	// articles
	"el", "la", "los", "las", "un", "una", "unos", "unas",
	"the", "a", "an",
	"le", "les", "une", "des",
	// demonstratives
	"este", "esta", "estos", "estas", "ese", "esa", "aquel", "aquella",
	"this", "that", "these", "those",
	"ce", "cette", "ces",
	// imperatives and their objects
	"look", "find", "mark", "show", "locate", "search", "display", "draw", "trace", "me", "please",
	"mira", "busca", "localiza", "encuentra", "muestra", "marca", "traza", "dibuja",
	"enseñame", "enséñame", "muéstrame", "muestrame",
	"cherche", "trouve", "montre", "affiche", "moi",
).union(connectorWords)

type stopwords map[string]struct{}

func wordSet(words ...string) stopwords {
	s := make(stopwords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s stopwords) union(other stopwords) stopwords {
	out := make(stopwords, len(s)+len(other))
	for w := range s {
		out[w] = struct{}{}
	}
	for w := range other {
		out[w] = struct{}{}
	}
	return out
}

func (s stopwords) has(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Normalize strips conversational noise from a location query.
//
// Leading filler (articles, demonstratives, imperative verbs) is removed
// aggressively; interior words are removed only when they are connectors.
// The result is idempotent: Normalize(Normalize(s)) == Normalize(s).
// A query made only of filler normalizes to "".
func Normalize(query string) string {
	words := strings.Fields(query)

	start := 0
	for start < len(words) && leadingFiller.has(words[start]) {
		start++
	}
	if start == len(words) {
		return ""
	}

	kept := make([]string, 0, len(words)-start)
	kept = append(kept, words[start])
	for _, w := range words[start+1:] {
		if connectorWords.has(w) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
