package testutils

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/getzep/textlab/pkg/models"
)

// keywordBanks holds label-specific vocabulary; label i of a generated corpus draws from bank
// i modulo the number of banks.
var keywordBanks = [][]string{
	{"awful", "terrible", "hated", "boring", "dreadful", "worst", "disappointing", "poor"},
	{"wonderful", "excellent", "loved", "brilliant", "delightful", "superb", "enjoyable", "great"},
	{"market", "profit", "shares", "investor", "revenue", "merger", "economy", "bank"},
	{"election", "minister", "parliament", "vote", "policy", "senate", "campaign", "law"},
	{"goal", "match", "league", "coach", "striker", "season", "tournament", "referee"},
	{"software", "device", "startup", "chip", "robot", "cloud", "app", "network"},
	{"winner", "prize", "claim", "urgent", "cash", "offer", "click", "free"},
	{"dinner", "tomorrow", "meeting", "thanks", "later", "home", "call", "weekend"},
}

var defaultLabels = []string{"negative", "positive"}

// GenerateCorpus returns n labeled records spread round-robin over labels. Each text mixes
// label keywords with random filler words, so classes are learnable but not trivially
// separable. The output is fully determined by seed.
func GenerateCorpus(n int, labels []string, seed int64) []models.Record {
	if len(labels) == 0 {
		labels = defaultLabels
	}
	faker := gofakeit.New(seed)

	records := make([]models.Record, n)
	for i := 0; i < n; i++ {
		li := i % len(labels)
		bank := keywordBanks[li%len(keywordBanks)]

		words := make([]string, 0, 8)
		for k := 0; k < 3; k++ {
			words = append(words, faker.RandomString(bank))
		}
		for k := 0; k < 3; k++ {
			words = append(words, strings.ToLower(faker.Noun()))
		}
		words = append(words, strings.ToLower(faker.Adjective()))
		faker.ShuffleStrings(words)

		text := strings.Join(words, " ")
		if i%5 == 0 {
			text = strings.ToUpper(text[:1]) + text[1:] + "!"
		}
		records[i] = models.NewRecord(text, labels[li])
	}
	return records
}

// GenerateTexts returns n unlabeled filler sentences.
func GenerateTexts(n int, seed int64) []string {
	faker := gofakeit.New(seed)
	texts := make([]string, n)
	for i := range texts {
		texts[i] = faker.Sentence(8)
	}
	return texts
}
