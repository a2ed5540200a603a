package textproc

import (
	"testing"

	"github.com/getzep/textlab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEntities_PersonAndDate(t *testing.T) {
	text := "Contact John Smith on 12/05/2024"
	spans := DetectEntities(text)

	require.Len(t, spans, 2)
	assert.Equal(t, models.EntitySpan{Text: "John Smith", Label: EntityPerson, Start: 8, End: 18}, spans[0])
	assert.Equal(t, models.EntitySpan{Text: "12/05/2024", Label: EntityDate, Start: 22, End: 32}, spans[1])
}

func TestDetectEntities_Classes(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		label string
		span  string
	}{
		{"money with symbol", "It costs $1,250.50 today", EntityMoney, "$1,250.50"},
		{"money with unit", "Paid 300 dollars", EntityMoney, "300 dollars"},
		{"percent", "Sales grew 12.5% this year", EntityPercent, "12.5%"},
		{"iso date", "Due 2024-03-01 at noon", EntityDate, "2024-03-01"},
		{"month date", "born on March 3rd, 1990", EntityDate, "March 3rd, 1990"},
		{"clock time", "meet me at 10:30 pm", EntityTime, "10:30 pm"},
		{"organization", "She works for Acme Corp downtown", EntityOrganization, "Acme Corp"},
		{"location", "We flew to Paris yesterday", EntityLocation, "Paris"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spans := DetectEntities(tc.text)
			found := false
			for _, s := range spans {
				if s.Label == tc.label && s.Text == tc.span {
					found = true
					runes := []rune(tc.text)
					assert.Equal(t, tc.span, string(runes[s.Start:s.End]))
				}
			}
			assert.True(t, found, "expected %s span %q in %+v", tc.label, tc.span, spans)
		})
	}
}

func TestDetectEntities_RuneOffsets(t *testing.T) {
	text := "Café owner Maria Lopez paid €20"
	spans := DetectEntities(text)
	runes := []rune(text)
	require.NotEmpty(t, spans)
	for _, s := range spans {
		assert.Equal(t, s.Text, string(runes[s.Start:s.End]))
	}
}

func TestDetectEntities_NoOverlapAndSorted(t *testing.T) {
	spans := DetectEntities("On 12/05/2024 at 9:15 am Jane Doe paid $40 for 20% of Globex Inc.")
	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].Start, spans[i].Start)
		assert.LessOrEqual(t, spans[i-1].End, spans[i].Start)
	}
}

func TestNormalize_EntitiesUseOriginalText(t *testing.T) {
	opts := models.DefaultNormalizationOptions()
	opts.DetectEntities = true
	out := Normalize("Contact John Smith on 12/05/2024", opts)

	require.Len(t, out.Entities, 2)
	assert.Equal(t, 8, out.Entities[0].Start)
	assert.NotContains(t, out.ProcessedText, "12/05/2024")
}
