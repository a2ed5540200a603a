package dataset

import (
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"github.com/getzep/textlab/pkg/models"
)

// Augmenters are naive baselines: a small fixed thesaurus and a fixed phrase table stand in for
// real synonym models and translation round trips. They are not production quality.
type Augmenter interface {
	Name() string
	// Augment returns one new record per input record with non-blank text. Labels and metadata
	// are carried over; inputs are not modified.
	Augment(records []models.Record) []models.Record
}

const (
	AugmenterSynonym         = "synonym"
	AugmenterBackTranslation = "back-translation"
)

// DefaultSynonymProbability is the per-word replacement probability.
const DefaultSynonymProbability = 0.3

func NewAugmenter(name string, probability float64, seed int64) (Augmenter, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case AugmenterSynonym, "":
		if probability <= 0 || probability > 1 {
			probability = DefaultSynonymProbability
		}
		return &SynonymAugmenter{Probability: probability, Seed: seed}, nil
	case AugmenterBackTranslation:
		return &BackTranslationAugmenter{}, nil
	default:
		return nil, models.NewValidationError("unsupported augmentation method: %q", name)
	}
}

var thesaurus = map[string][]string{
	"good":      {"great", "fine", "nice"},
	"great":     {"excellent", "wonderful", "good"},
	"bad":       {"poor", "awful", "terrible"},
	"terrible":  {"awful", "horrible", "dreadful"},
	"happy":     {"glad", "pleased", "cheerful"},
	"sad":       {"unhappy", "sorrowful", "down"},
	"movie":     {"film", "picture"},
	"film":      {"movie", "picture"},
	"big":       {"large", "huge"},
	"small":     {"little", "tiny"},
	"fast":      {"quick", "rapid"},
	"slow":      {"sluggish", "unhurried"},
	"love":      {"adore", "like"},
	"hate":      {"dislike", "detest"},
	"buy":       {"purchase", "acquire"},
	"free":      {"complimentary", "gratis"},
	"win":       {"earn", "gain"},
	"money":     {"cash", "funds"},
	"important": {"significant", "crucial"},
	"beautiful": {"lovely", "gorgeous"},
	"boring":    {"dull", "tedious"},
	"funny":     {"amusing", "hilarious"},
	"food":      {"meal", "cuisine"},
	"service":   {"assistance", "support"},
	"company":   {"firm", "business"},
	"game":      {"match", "contest"},
	"quickly":   {"rapidly", "swiftly"},
	"very":      {"really", "extremely"},
}

// SynonymAugmenter replaces thesaurus words with a random synonym, each with Probability.
// Output is deterministic for a given Seed.
type SynonymAugmenter struct {
	Probability float64
	Seed        int64
}

func (a *SynonymAugmenter) Name() string {
	return AugmenterSynonym
}

func (a *SynonymAugmenter) Augment(records []models.Record) []models.Record {
	rng := rand.New(rand.NewSource(a.Seed)) //nolint:gosec
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		words := strings.Fields(r.Text)
		for i, w := range words {
			core, prefix, suffix := splitPunct(w)
			syns, ok := thesaurus[strings.ToLower(core)]
			if !ok || rng.Float64() >= a.Probability {
				continue
			}
			words[i] = prefix + matchCase(core, syns[rng.Intn(len(syns))]) + suffix
		}
		out = append(out, derived(r, strings.Join(words, " ")))
	}
	return out
}

// phraseTable approximates an English -> pivot -> English round trip.
var phraseTable = map[string]string{
	"i think":         "in my opinion",
	"very good":       "really good",
	"very bad":        "really bad",
	"a lot of":        "many",
	"i don't like":    "i do not enjoy",
	"i like":          "i enjoy",
	"movie":           "film",
	"buy":             "purchase",
	"it was":          "it has been",
	"is not":          "isn't",
	"click here":      "press here",
	"you have won":    "you won",
	"as soon as":      "when",
	"in order to":     "to",
	"customer":        "client",
	"terrible":        "horrible",
	"amazing":         "incredible",
	"call now":        "phone now",
	"free":            "at no cost",
	"the best":        "the finest",
	"not bad":         "quite okay",
	"would recommend": "recommend",
}

var phraseRe = compilePhrases(phraseTable)

func compilePhrases(table map[string]string) *regexp2.Regexp {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for i, k := range keys {
		keys[i] = strings.ReplaceAll(regexp2.Escape(k), `\ `, `\s+`)
	}
	return regexp2.MustCompile(`\b(?:`+strings.Join(keys, "|")+`)\b`, regexp2.IgnoreCase)
}

// BackTranslationAugmenter paraphrases with a fixed phrase table. Records without any known
// phrase come back unchanged.
type BackTranslationAugmenter struct{}

func (a *BackTranslationAugmenter) Name() string {
	return AugmenterBackTranslation
}

func (a *BackTranslationAugmenter) Augment(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		text, err := phraseRe.ReplaceFunc(r.Text, func(m regexp2.Match) string {
			found := m.String()
			key := strings.Join(strings.Fields(strings.ToLower(found)), " ")
			if repl, ok := phraseTable[key]; ok {
				return matchCase(found, repl)
			}
			return found
		}, -1, -1)
		if err != nil {
			text = r.Text
		}
		out = append(out, derived(r, text))
	}
	return out
}

func derived(r models.Record, text string) models.Record {
	rec := models.Record{Text: text}
	if r.Label != nil {
		label := *r.Label
		rec.Label = &label
	}
	if r.Metadata != nil {
		rec.Metadata = make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			rec.Metadata[k] = v
		}
	}
	return rec
}

func splitPunct(w string) (core, prefix, suffix string) {
	runes := []rune(w)
	start, end := 0, len(runes)
	for start < end && !unicode.IsLetter(runes[start]) {
		start++
	}
	for end > start && !unicode.IsLetter(runes[end-1]) {
		end--
	}
	return string(runes[start:end]), string(runes[:start]), string(runes[end:])
}

func matchCase(original, replacement string) string {
	r := []rune(original)
	if len(r) == 0 || replacement == "" {
		return replacement
	}
	if strings.ToUpper(original) == original && len(r) > 1 {
		return strings.ToUpper(replacement)
	}
	if unicode.IsUpper(r[0]) {
		rr := []rune(replacement)
		rr[0] = unicode.ToUpper(rr[0])
		return string(rr)
	}
	return replacement
}
