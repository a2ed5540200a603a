package textproc

import (
	"strings"

	"github.com/getzep/textlab/pkg/models"
)

type StepName string

const (
	StepExpandContractions StepName = "expand_contractions"
	StepCorrectSpelling    StepName = "correct_spelling"
	StepLowercase          StepName = "lowercase"
	StepStrip              StepName = "strip"
	StepCollapseWhitespace StepName = "collapse_whitespace"
	StepTokenize           StepName = "tokenize"
	StepRemoveStopwords    StepName = "remove_stopwords"
	StepStem               StepName = "stem"
	StepLemmatize          StepName = "lemmatize"
	StepJoin               StepName = "join"
)

// Document is the mutable value threaded through a Pipeline. Text-level steps work on Text,
// token-level steps on Tokens. Tokens is nil until the tokenize step has run.
type Document struct {
	Text   string
	Tokens []string
}

type StepFunc func(doc *Document)

type Step struct {
	Name StepName
	Run  StepFunc
}

// Pipeline is an ordered list of enabled normalization steps.
type Pipeline struct {
	steps []Step
}

// Builder assembles a Pipeline. Steps are kept in the order they are added; disabled steps are
// dropped at Build time.
type Builder struct {
	steps []Step
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Add(name StepName, enabled bool, fn StepFunc) *Builder {
	if enabled {
		b.steps = append(b.steps, Step{Name: name, Run: fn})
	}
	return b
}

func (b *Builder) Build() *Pipeline {
	steps := make([]Step, len(b.steps))
	copy(steps, b.steps)
	return &Pipeline{steps: steps}
}

// NewPipeline builds the standard normalization pipeline for opts. The order is fixed:
// contractions, spelling, case, stripping, whitespace, tokenize, stopwords, stem, lemmatize,
// join. Tokenize and join are only present when a token-level step is enabled.
func NewPipeline(opts models.NormalizationOptions) *Pipeline {
	tokens := opts.AnyTokenStep()
	strip := opts.RemovePunctuation || opts.RemoveSymbols || opts.RemoveNumbers

	return NewBuilder().
		Add(StepExpandContractions, opts.ExpandContractions, expandContractions).
		Add(StepCorrectSpelling, opts.CorrectSpelling, correctSpelling).
		Add(StepLowercase, opts.Lowercase, lowercase).
		Add(StepStrip, strip, stripper(opts)).
		Add(StepCollapseWhitespace, opts.CollapseWhitespace, collapseWhitespace).
		Add(StepTokenize, tokens, tokenize).
		Add(StepRemoveStopwords, opts.RemoveStopwords, removeStopwords).
		Add(StepStem, opts.Stem, stem).
		Add(StepLemmatize, opts.Lemmatize, lemmatize).
		Add(StepJoin, tokens, join).
		Build()
}

// Steps returns the names of the pipeline's steps in execution order.
func (p *Pipeline) Steps() []StepName {
	names := make([]StepName, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Run applies every step to text.
func (p *Pipeline) Run(text string) Document {
	doc := Document{Text: text}
	if text == "" {
		return doc
	}
	for _, s := range p.steps {
		s.Run(&doc)
	}
	return doc
}

// Normalize runs the normalization pipeline configured by opts over text. It never fails: empty
// or unusable input produces empty output, as does text whose every token is removed by the
// enabled steps. OriginalText always holds the input. Entities, when requested, are detected on
// the original text.
func Normalize(text string, opts models.NormalizationOptions) models.NormalizedText {
	return normalize(NewPipeline(opts), text, opts.DetectEntities)
}

func normalize(p *Pipeline, text string, entities bool) models.NormalizedText {
	doc := p.Run(text)

	tokens := doc.Tokens
	if tokens == nil && doc.Text != "" {
		tokens = strings.Fields(doc.Text)
	}

	out := models.NormalizedText{
		ProcessedText: doc.Text,
		OriginalText:  text,
		Tokens:        tokens,
	}
	if entities {
		out.Entities = DetectEntities(text)
	}
	return out
}

// NormalizeRecords normalizes every record with the same options. Output order matches input
// order and no record is dropped.
func NormalizeRecords(records []models.Record, opts models.NormalizationOptions) []models.CleanedRecord {
	p := NewPipeline(opts)
	out := make([]models.CleanedRecord, len(records))
	for i, r := range records {
		out[i] = models.CleanedRecord{
			NormalizedText: normalize(p, r.Text, opts.DetectEntities),
			Label:          r.Label,
			Metadata:       r.Metadata,
		}
	}
	return out
}

// NormalizeTexts returns only the processed text for each input.
func NormalizeTexts(texts []string, opts models.NormalizationOptions) []string {
	p := NewPipeline(opts)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = p.Run(t).Text
	}
	return out
}
