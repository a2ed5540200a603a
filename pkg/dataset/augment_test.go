package dataset

import (
	"testing"

	"github.com/getzep/textlab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynonymAugmenter(t *testing.T) {
	records := []models.Record{
		models.NewRecord("Good movie, very good food!", "positive"),
		{Text: "   "},
		models.NewRecord("nothing to replace here", "neutral"),
	}

	a := &SynonymAugmenter{Probability: 1, Seed: 7}
	out := a.Augment(records)
	require.Len(t, out, 2)

	assert.NotEqual(t, records[0].Text, out[0].Text)
	assert.Equal(t, "positive", out[0].LabelValue())
	assert.Equal(t, "nothing to replace here", out[1].Text)

	// seeded: same output every time, inputs untouched
	assert.Equal(t, out, a.Augment(records))
	assert.Equal(t, "Good movie, very good food!", records[0].Text)

	none := (&SynonymAugmenter{Probability: 0, Seed: 7}).Augment(records[:1])
	assert.Equal(t, records[0].Text, none[0].Text)
}

func TestBackTranslationAugmenter(t *testing.T) {
	out := (&BackTranslationAugmenter{}).Augment([]models.Record{
		models.NewRecord("I think this movie was very good", "positive"),
		models.NewRecord("CLICK HERE for FREE money", "spam"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "In my opinion this film was really good", out[0].Text)
	assert.Equal(t, "PRESS HERE for AT NO COST money", out[1].Text)
	assert.Equal(t, "spam", out[1].LabelValue())
}

func TestNewAugmenter(t *testing.T) {
	a, err := NewAugmenter("synonym", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultSynonymProbability, a.(*SynonymAugmenter).Probability)

	a, err = NewAugmenter("back_translation", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, AugmenterBackTranslation, a.Name())

	_, err = NewAugmenter("gpt", 0, 1)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
