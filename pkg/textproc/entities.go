package textproc

import (
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/getzep/textlab/pkg/models"
)

const (
	EntityPerson       = "PERSON"
	EntityOrganization = "ORGANIZATION"
	EntityLocation     = "LOCATION"
	EntityDate         = "DATE"
	EntityTime         = "TIME"
	EntityMoney        = "MONEY"
	EntityPercent      = "PERCENT"
)

const entityMatchTimeout = 2 * time.Second

type entityPattern struct {
	label string
	re    *regexp2.Regexp
}

// capitalized words that commonly start a sentence and are not names
var nonNameWords = []string{
	"A", "An", "And", "Ask", "At", "But", "By", "Call", "Contact", "Dear", "Email", "For",
	"From", "Hello", "Hey", "Hi", "I", "In", "It", "Meet", "Mr", "Mrs", "Ms", "Dr", "Our", "On",
	"Or", "Please", "See", "She", "He", "Thanks", "That", "The", "They", "This", "To", "We",
	"With", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
	"January", "February", "March", "April", "May", "June", "July", "August", "September",
	"October", "November", "December",
}

const monthNames = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|` +
	`Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

// entityPatterns are listed in priority order. When matches of different classes overlap, the
// earlier class wins. A named group "span" narrows the reported span to part of the match.
var entityPatterns = compileEntityPatterns([]struct {
	label   string
	pattern string
}{
	{EntityMoney, `(?:[$€£¥]\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?|[$€£¥]\s?\d+(?:\.\d+)?)` +
		`(?:\s?(?:million|billion|thousand|[MBK])\b)?` +
		`|\b\d+(?:\.\d+)?\s?(?:dollars|USD|euros|EUR|pounds|GBP)\b`},
	{EntityPercent, `\b\d+(?:\.\d+)?(?:\s?%|\s?(?:percent|per cent)\b)`},
	{EntityDate, `\b\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}\b` +
		`|\b\d{4}-\d{2}-\d{2}\b` +
		`|\b` + monthNames + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b` +
		`|\b\d{1,2}(?:st|nd|rd|th)?\s+` + monthNames + `(?:,?\s+\d{4})?\b`},
	{EntityTime, `\b(?:[01]?\d|2[0-3]):[0-5]\d(?::[0-5]\d)?(?:\s?[AaPp]\.?[Mm]\b\.?)?` +
		`|\b(?:1[0-2]|0?[1-9])\s?[AaPp]\.?[Mm]\b\.?`},
	{EntityOrganization, `\b(?:[A-Z][\w&]*\s+){0,3}` +
		`(?:Inc|Corp|Corporation|Ltd|LLC|Company|Co|Group|Bank|University|Institute|` +
		`Foundation|Association|Agency|Ministry|Department)\b\.?`},
	{EntityPerson, `\b(?:(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+)?` +
		`(?!(?:` + strings.Join(nonNameWords, "|") + `)\b)[A-Z][a-z]+` +
		`(?:\s+[A-Z]\.)?\s+` +
		`(?!(?:` + strings.Join(nonNameWords, "|") + `)\b)[A-Z][a-z]+\b`},
	{EntityLocation, `\b(?:in|at|from|near|to|visit(?:ed|ing)?)\s+` +
		`(?<span>(?!(?:` + strings.Join(nonNameWords, "|") + `)\b)[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`},
})

func compileEntityPatterns(defs []struct {
	label   string
	pattern string
}) []entityPattern {
	patterns := make([]entityPattern, len(defs))
	for i, d := range defs {
		re := regexp2.MustCompile(d.pattern, regexp2.None)
		re.MatchTimeout = entityMatchTimeout
		patterns[i] = entityPattern{label: d.label, re: re}
	}
	return patterns
}

// DetectEntities finds entity spans in text with fixed regular expression heuristics. Offsets
// are rune indices into text, End exclusive. Overlaps are resolved by class priority and the
// result is sorted by Start.
func DetectEntities(text string) []models.EntitySpan {
	if text == "" {
		return []models.EntitySpan{}
	}
	runes := []rune(text)

	var spans []models.EntitySpan
	for _, p := range entityPatterns {
		m, err := p.re.FindStringMatch(text)
		for m != nil && err == nil {
			start, length := m.Index, m.Length
			if g := m.GroupByName("span"); g != nil && len(g.Captures) > 0 {
				start, length = g.Index, g.Length
			}
			span := models.EntitySpan{
				Text:  string(runes[start : start+length]),
				Label: p.label,
				Start: start,
				End:   start + length,
			}
			if length > 0 && !overlapsAny(span, spans) {
				spans = append(spans, span)
			}
			m, err = p.re.FindNextMatch(m)
		}
		if err != nil {
			log.Debugf("entity pattern %s aborted: %v", p.label, err)
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
	if spans == nil {
		spans = []models.EntitySpan{}
	}
	return spans
}

func overlapsAny(s models.EntitySpan, spans []models.EntitySpan) bool {
	for _, o := range spans {
		if s.Start < o.End && o.Start < s.End {
			return true
		}
	}
	return false
}
