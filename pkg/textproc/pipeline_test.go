package textproc

import (
	"testing"

	"github.com/getzep/textlab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Identity(t *testing.T) {
	inputs := []string{
		"",
		"Hello, World!",
		"  I can't   believe it's 2024... teh END  ",
		"Ünïcödé text with emoji 🙂 and tabs\tand\nnewlines",
		"$5.00 for 50% off!!!",
	}
	for _, in := range inputs {
		out := Normalize(in, models.NormalizationOptions{})
		assert.Equal(t, in, out.ProcessedText)
		assert.Equal(t, in, out.OriginalText)
		assert.Empty(t, out.Entities)
	}
}

func TestNewPipeline_Order(t *testing.T) {
	all := models.NormalizationOptions{
		ExpandContractions: true,
		CorrectSpelling:    true,
		Lowercase:          true,
		RemovePunctuation:  true,
		RemoveSymbols:      true,
		RemoveNumbers:      true,
		CollapseWhitespace: true,
		RemoveStopwords:    true,
		Stem:               true,
		Lemmatize:          true,
	}
	assert.Equal(t, []StepName{
		StepExpandContractions,
		StepCorrectSpelling,
		StepLowercase,
		StepStrip,
		StepCollapseWhitespace,
		StepTokenize,
		StepRemoveStopwords,
		StepStem,
		StepLemmatize,
		StepJoin,
	}, NewPipeline(all).Steps())

	textOnly := models.NormalizationOptions{Lowercase: true, CollapseWhitespace: true}
	assert.Equal(t, []StepName{StepLowercase, StepCollapseWhitespace}, NewPipeline(textOnly).Steps())

	assert.Empty(t, NewPipeline(models.NormalizationOptions{}).Steps())
}

func TestNormalize_Steps(t *testing.T) {
	testCases := []struct {
		name     string
		opts     models.NormalizationOptions
		input    string
		expected string
	}{
		{
			name:     "contractions are expanded case-insensitively",
			opts:     models.NormalizationOptions{ExpandContractions: true},
			input:    "I can't go, Don't wait, it’s late",
			expected: "I cannot go, Do not wait, it is late",
		},
		{
			name:     "contractions match whole words only",
			opts:     models.NormalizationOptions{ExpandContractions: true},
			input:    "won'tx stays",
			expected: "won'tx stays",
		},
		{
			name:     "known misspellings are corrected",
			opts:     models.NormalizationOptions{CorrectSpelling: true},
			input:    "Teh movie was realy good, I recieved it",
			expected: "The movie was really good, I received it",
		},
		{
			name:     "contraction expansion runs before case folding",
			opts:     models.NormalizationOptions{ExpandContractions: true, Lowercase: true},
			input:    "WON'T Stop",
			expected: "will not stop",
		},
		{
			name:     "punctuation and symbols share a character class",
			opts:     models.NormalizationOptions{RemovePunctuation: true},
			input:    "Hello, world! #1 $5",
			expected: "Hello world 1 5",
		},
		{
			name:     "symbol removal alone behaves like punctuation removal",
			opts:     models.NormalizationOptions{RemoveSymbols: true},
			input:    "a+b=c?",
			expected: "abc",
		},
		{
			name:     "numbers only",
			opts:     models.NormalizationOptions{RemoveNumbers: true},
			input:    "room 101, floor 3!",
			expected: "room , floor !",
		},
		{
			name:     "whitespace is collapsed and trimmed",
			opts:     models.NormalizationOptions{CollapseWhitespace: true},
			input:    "  a \t b\n\nc  ",
			expected: "a b c",
		},
		{
			name: "stopwords removed after tokenization",
			opts: models.NormalizationOptions{
				Lowercase:       true,
				RemoveStopwords: true,
			},
			input:    "This is a test of the system",
			expected: "test system",
		},
		{
			name:     "stemming",
			opts:     models.NormalizationOptions{Stem: true},
			input:    "running jumps easily",
			expected: "run jump easili",
		},
		{
			name:     "lemmatization",
			opts:     models.NormalizationOptions{Lemmatize: true},
			input:    "cats and mice",
			expected: "cat and mouse",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Normalize(tc.input, tc.opts)
			assert.Equal(t, tc.expected, out.ProcessedText)
			assert.Equal(t, tc.input, out.OriginalText)
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	out := Normalize("The 3 cats were chasing mice!!", models.DefaultNormalizationOptions())
	assert.Equal(t, "cat chase mouse", out.ProcessedText)
	assert.Equal(t, []string{"cat", "chase", "mouse"}, out.Tokens)
}

func TestNormalize_EmptyInput(t *testing.T) {
	opts := models.DefaultNormalizationOptions()
	opts.DetectEntities = true
	out := Normalize("", opts)
	assert.Equal(t, "", out.ProcessedText)
	assert.Empty(t, out.Tokens)
	assert.Empty(t, out.Entities)
}

func TestNormalize_EverythingRemoved(t *testing.T) {
	opts := models.DefaultNormalizationOptions()
	for _, text := range []string{"the a", "!!! ...", "It is 2024."} {
		t.Run(text, func(t *testing.T) {
			out := Normalize(text, opts)
			assert.Equal(t, "", out.ProcessedText)
			assert.Equal(t, text, out.OriginalText)
		})
	}

	// records are kept in place, never dropped
	records := []models.Record{
		models.NewRecord("the a", "negative"),
		models.NewRecord("great film", "positive"),
	}
	cleaned := NormalizeRecords(records, opts)
	require.Len(t, cleaned, 2)
	assert.Equal(t, "", cleaned[0].ProcessedText)
	assert.Equal(t, "the a", cleaned[0].OriginalText)
	assert.Equal(t, "negative", *cleaned[0].Label)
	assert.Equal(t, "great film", cleaned[1].ProcessedText)
}

func TestNormalize_Deterministic(t *testing.T) {
	opts := models.DefaultNormalizationOptions()
	opts.Stem = true
	text := "Repeated runs should always produce identical results, shouldn't they?"
	first := Normalize(text, opts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Normalize(text, opts))
	}
}

func TestNormalizeRecords(t *testing.T) {
	records := []models.Record{
		models.NewRecord("Great PRODUCT!", "positive"),
		{Text: ""},
		models.NewRecord("Terrible, awful.", "negative"),
	}
	opts := models.NormalizationOptions{Lowercase: true, RemovePunctuation: true}

	cleaned := NormalizeRecords(records, opts)
	require.Len(t, cleaned, 3)

	assert.Equal(t, "great product", cleaned[0].ProcessedText)
	assert.Equal(t, "Great PRODUCT!", cleaned[0].OriginalText)
	assert.Equal(t, "positive", *cleaned[0].Label)

	assert.Equal(t, "", cleaned[1].ProcessedText)
	assert.Nil(t, cleaned[1].Label)

	assert.Equal(t, "terrible awful", cleaned[2].ProcessedText)
}

func TestBuilder(t *testing.T) {
	p := NewBuilder().
		Add("upper", true, func(doc *Document) { doc.Text = doc.Text + "!" }).
		Add("skipped", false, func(doc *Document) { doc.Text = "" }).
		Build()
	assert.Equal(t, []StepName{"upper"}, p.Steps())
	assert.Equal(t, "hi!", p.Run("hi").Text)
}
