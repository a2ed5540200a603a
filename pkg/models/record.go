package models

// Record is one text sample. Label is nil for inference-only records.
type Record struct {
	Text     string         `json:"text"               msgpack:"text"`
	Label    *string        `json:"label,omitempty"    msgpack:"label,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// NewRecord returns a labeled Record.
func NewRecord(text, label string) Record {
	return Record{Text: text, Label: &label}
}

// HasLabel reports whether the record carries a label usable for training.
func (r Record) HasLabel() bool {
	return r.Label != nil
}

// LabelValue returns the label or the empty string for unlabeled records.
func (r Record) LabelValue() string {
	if r.Label == nil {
		return ""
	}
	return *r.Label
}

// DatasetStats are derived once when a Dataset is built.
type DatasetStats struct {
	TotalCount        int            `json:"total_count"`
	LabeledCount      int            `json:"labeled_count"`
	LabelDistribution map[string]int `json:"label_distribution"`
	AvgTextLength     float64        `json:"avg_text_length"`
}

// Dataset is an ordered, read-only sequence of Records plus statistics.
// Use dataset.New to build one.
type Dataset struct {
	Name    string
	records []Record
	stats   DatasetStats
}

// NewDataset wraps records and precomputed stats. The slice is copied.
func NewDataset(name string, records []Record, stats DatasetStats) *Dataset {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Dataset{Name: name, records: cp, stats: stats}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of the dataset's records.
func (d *Dataset) Records() []Record {
	cp := make([]Record, len(d.records))
	copy(cp, d.records)
	return cp
}

// Record returns the record at index i.
func (d *Dataset) Record(i int) Record {
	return d.records[i]
}

// Stats returns the dataset statistics.
func (d *Dataset) Stats() DatasetStats {
	dist := make(map[string]int, len(d.stats.LabelDistribution))
	for k, v := range d.stats.LabelDistribution {
		dist[k] = v
	}
	s := d.stats
	s.LabelDistribution = dist
	return s
}

// EntitySpan is a detected entity with rune offsets into the original text.
type EntitySpan struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// NormalizedText is the output of the normalization stage. ProcessedText and OriginalText are
// not token aligned.
type NormalizedText struct {
	ProcessedText string       `json:"processed_text"`
	OriginalText  string       `json:"original_text"`
	Tokens        []string     `json:"tokens,omitempty"`
	Entities      []EntitySpan `json:"entities,omitempty"`
}

// CleanedRecord is a Record after normalization.
type CleanedRecord struct {
	NormalizedText
	Label    *string        `json:"label,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RepresentedRecord is a vectorized record.
type RepresentedRecord struct {
	Text   string    `json:"text"`
	Label  *string   `json:"label,omitempty"`
	Vector []float64 `json:"vector"`
}
