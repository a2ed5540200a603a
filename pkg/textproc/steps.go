package textproc

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/clipperhouse/uax29/v2/words"
	"github.com/dlclark/regexp2"
	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/models"
	"github.com/kljensen/snowball/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var log = internal.GetLogger()

var (
	contractionRe = dictionaryRegexp(contractions)
	misspellingRe = dictionaryRegexp(misspellings)
)

// dictionaryRegexp compiles a case-insensitive whole-word alternation over the keys of dict.
// Longer keys come first so "can't've" wins over "can't". Straight and curly apostrophes match
// each other.
func dictionaryRegexp(dict map[string]string) *regexp2.Regexp {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	alternatives := make([]string, len(keys))
	for i, k := range keys {
		alternatives[i] = strings.ReplaceAll(regexp2.Escape(k), "'", "['’]")
	}
	pattern := `\b(?:` + strings.Join(alternatives, "|") + `)\b`
	return regexp2.MustCompile(pattern, regexp2.IgnoreCase)
}

// replaceDictionary substitutes whole-word dictionary matches. A leading capital on the matched
// word is carried over to the replacement.
func replaceDictionary(re *regexp2.Regexp, dict map[string]string, text string) string {
	out, err := re.ReplaceFunc(text, func(m regexp2.Match) string {
		word := m.String()
		key := strings.ReplaceAll(strings.ToLower(word), "’", "'")
		replacement, ok := dict[key]
		if !ok {
			return word
		}
		return matchCapital(word, replacement)
	}, -1, -1)
	if err != nil {
		log.Debugf("dictionary replacement skipped: %v", err)
		return text
	}
	return out
}

func matchCapital(original, replacement string) string {
	first := []rune(original)
	if len(first) == 0 || !unicode.IsUpper(first[0]) || replacement == "" {
		return replacement
	}
	r := []rune(replacement)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func expandContractions(doc *Document) {
	doc.Text = replaceDictionary(contractionRe, contractions, doc.Text)
}

func correctSpelling(doc *Document) {
	doc.Text = replaceDictionary(misspellingRe, misspellings, doc.Text)
}

func lowercase(doc *Document) {
	// Casers keep internal state and must not be shared across goroutines.
	doc.Text = cases.Lower(language.Und).String(doc.Text)
}

// stripper removes punctuation/symbols (one shared class: anything that is not a letter, digit,
// whitespace or underscore) and/or digits.
func stripper(opts models.NormalizationOptions) StepFunc {
	punct := opts.RemovePunctuation || opts.RemoveSymbols
	numbers := opts.RemoveNumbers
	return func(doc *Document) {
		doc.Text = strings.Map(func(r rune) rune {
			switch {
			case unicode.IsNumber(r):
				if numbers {
					return -1
				}
				return r
			case unicode.IsLetter(r), unicode.IsSpace(r), r == '_':
				return r
			case unicode.IsMark(r):
				// combining marks belong to the preceding letter
				return r
			default:
				if punct {
					return -1
				}
				return r
			}
		}, doc.Text)
	}
}

func collapseWhitespace(doc *Document) {
	doc.Text = strings.Join(strings.Fields(doc.Text), " ")
}

// tokenize splits text into Unicode words (UAX #29). Whitespace segments are discarded;
// punctuation segments are kept as tokens.
func tokenize(doc *Document) {
	tokens := make([]string, 0, len(doc.Text)/4)
	segments := words.FromString(doc.Text)
	for segments.Next() {
		tok := segments.Value()
		if strings.TrimSpace(tok) == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	doc.Tokens = tokens
}

func removeStopwords(doc *Document) {
	kept := doc.Tokens[:0]
	for _, tok := range doc.Tokens {
		if _, ok := stopwords[strings.ToLower(tok)]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	doc.Tokens = kept
}

// stem applies the English Snowball (Porter2) stemmer. The stemmer lowercases its input.
func stem(doc *Document) {
	for i, tok := range doc.Tokens {
		if !hasLetter(tok) {
			continue
		}
		doc.Tokens[i] = english.Stem(tok, false)
	}
}

var (
	lemmatizerOnce sync.Once
	lemmatizer     *golem.Lemmatizer
)

func getLemmatizer() *golem.Lemmatizer {
	lemmatizerOnce.Do(func() {
		l, err := golem.New(en.New())
		if err != nil {
			log.Errorf("failed to load English lemma dictionary, lemmatization disabled: %v", err)
			return
		}
		lemmatizer = l
	})
	return lemmatizer
}

func lemmatize(doc *Document) {
	l := getLemmatizer()
	if l == nil {
		return
	}
	for i, tok := range doc.Tokens {
		if !hasLetter(tok) {
			continue
		}
		doc.Tokens[i] = l.Lemma(tok)
	}
}

func join(doc *Document) {
	doc.Text = strings.Join(doc.Tokens, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
