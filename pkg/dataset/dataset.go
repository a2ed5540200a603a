package dataset

import (
	"unicode/utf8"

	"github.com/getzep/textlab/pkg/models"
)

// New builds an immutable Dataset and computes its statistics. Record order is preserved.
func New(name string, records []models.Record) *models.Dataset {
	return models.NewDataset(name, records, ComputeStats(records))
}

// ComputeStats derives counts, the label distribution and the mean text length in characters.
// Unlabeled records count towards TotalCount and AvgTextLength only.
func ComputeStats(records []models.Record) models.DatasetStats {
	stats := models.DatasetStats{
		TotalCount:        len(records),
		LabelDistribution: make(map[string]int),
	}
	if len(records) == 0 {
		return stats
	}

	var chars int
	for _, r := range records {
		chars += utf8.RuneCountInString(r.Text)
		if r.HasLabel() {
			stats.LabeledCount++
			stats.LabelDistribution[*r.Label]++
		}
	}
	stats.AvgTextLength = float64(chars) / float64(len(records))
	return stats
}

// Labeled returns only the records that carry a label.
func Labeled(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.HasLabel() {
			out = append(out, r)
		}
	}
	return out
}
