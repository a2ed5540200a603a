package models

import (
	"sort"
	"strconv"
	"strings"
)

// TaskDefinition is a fixed supervised classification problem bound to a dataset family and a
// label table.
type TaskDefinition struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	DatasetFamily string   `json:"dataset_family"`
	Labels        []string `json:"labels"`
	Aliases       []string `json:"-"`
}

// DecodeLabel maps a raw class label to its human readable form. Integer labels index the label
// table; anything without a table entry is returned verbatim.
func (t TaskDefinition) DecodeLabel(raw string) string {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 || idx >= len(t.Labels) {
		return raw
	}
	return t.Labels[idx]
}

// Catalog resolves task ids and display names to TaskDefinitions.
type Catalog struct {
	tasks map[string]TaskDefinition
	index map[string]string
}

// NewCatalog builds a catalog from definitions. Ids and aliases are matched case-insensitively.
func NewCatalog(defs ...TaskDefinition) *Catalog {
	c := &Catalog{
		tasks: make(map[string]TaskDefinition, len(defs)),
		index: make(map[string]string),
	}
	for _, d := range defs {
		c.tasks[d.ID] = d
		c.index[strings.ToLower(d.ID)] = d.ID
		c.index[strings.ToLower(d.Name)] = d.ID
		for _, a := range d.Aliases {
			c.index[strings.ToLower(a)] = d.ID
		}
	}
	return c
}

// Lookup returns the task for an id, name or alias.
func (c *Catalog) Lookup(idOrName string) (TaskDefinition, error) {
	id, ok := c.index[strings.ToLower(strings.TrimSpace(idOrName))]
	if !ok {
		return TaskDefinition{}, NewValidationError("unknown task: %q", idOrName)
	}
	return c.tasks[id], nil
}

// List returns every task sorted by id.
func (c *Catalog) List() []TaskDefinition {
	out := make([]TaskDefinition, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

const (
	TaskSentiment           = "sentiment"
	TaskTopicClassification = "topic"
	TaskSpam                = "spam"
	TaskRating              = "rating"
)

// DefaultCatalog is the fixed task set served by textlab.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		TaskDefinition{
			ID:            TaskSentiment,
			Name:          "Sentiment Analysis",
			DatasetFamily: "imdb",
			Labels:        []string{"negative", "positive"},
			Aliases:       []string{"sentiment-analysis", "imdb", "twitter"},
		},
		TaskDefinition{
			ID:            TaskTopicClassification,
			Name:          "Text Classification",
			DatasetFamily: "bbc",
			Labels:        []string{"business", "entertainment", "politics", "sport", "tech"},
			Aliases:       []string{"topic-classification", "text-classification", "bbc", "ag_news"},
		},
		TaskDefinition{
			ID:            TaskSpam,
			Name:          "Spam Detection",
			DatasetFamily: "sms",
			Labels:        []string{"ham", "spam"},
			Aliases:       []string{"spam-detection", "sms"},
		},
		TaskDefinition{
			ID:            TaskRating,
			Name:          "Rating Prediction",
			DatasetFamily: "yelp",
			Labels:        []string{"1 star", "2 stars", "3 stars", "4 stars", "5 stars"},
			Aliases:       []string{"rating-prediction", "yelp"},
		},
	)
}
