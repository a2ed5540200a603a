package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/getzep/textlab/pkg/models"
	"github.com/hashicorp/go-multierror"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

const (
	ColumnText  = "text"
	ColumnLabel = "label"
)

// MaxUploadSize is the largest dataset Load accepts. Larger inputs are rejected whole.
var MaxUploadSize int64 = 64 << 20

var ErrUnsupportedFormat = models.NewValidationError("unsupported dataset format, expected csv or json")

// DetectFormat infers the dataset format from the file name and, failing that, the content.
func DetectFormat(filename string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}

	mime := mimetype.Detect(head)
	switch {
	case mime.Is("application/json"):
		return FormatJSON, nil
	case mime.Is("text/csv"):
		return FormatCSV, nil
	case mime.Is("text/plain"):
		trimmed := bytes.TrimSpace(head)
		if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
			return FormatJSON, nil
		}
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// Load reads a dataset upload. The format is detected when empty. Missing text or label
// columns reject the whole upload before any record is produced.
func Load(r io.Reader, name string, format Format) (*models.Dataset, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, models.NewStageError("load", -1, err)
	}
	if int64(len(data)) > MaxUploadSize {
		return nil, models.NewTooLargeError("dataset "+name, MaxUploadSize)
	}
	if format == "" {
		format, err = DetectFormat(name, data)
		if err != nil {
			return nil, err
		}
	}

	var records []models.Record
	switch format {
	case FormatCSV:
		records, err = ParseCSV(bytes.NewReader(data))
	case FormatJSON:
		records, err = ParseJSON(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return New(name, records), nil
}

// ParseCSV reads a CSV with a header row. "text" and "label" columns are required (matched
// case-insensitively); other columns become record metadata. An empty label cell produces an
// unlabeled record.
func ParseCSV(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewValidationError("dataset is empty")
	}
	if err != nil {
		return nil, models.NewStageError("load", 0, err)
	}

	columns := make([]string, len(header))
	textIdx, labelIdx := -1, -1
	for i, h := range header {
		col := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		columns[i] = col
		switch col {
		case ColumnText:
			textIdx = i
		case ColumnLabel:
			labelIdx = i
		}
	}
	if err := requireColumns(textIdx >= 0, labelIdx >= 0); err != nil {
		return nil, err
	}

	var records []models.Record
	for row := 0; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewStageError("load", row, err)
		}

		rec := models.Record{}
		if textIdx < len(fields) {
			rec.Text = fields[textIdx]
		}
		if labelIdx < len(fields) {
			if label := strings.TrimSpace(fields[labelIdx]); label != "" {
				rec.Label = &label
			}
		}
		for i, v := range fields {
			if i == textIdx || i == labelIdx || i >= len(columns) || columns[i] == "" {
				continue
			}
			if rec.Metadata == nil {
				rec.Metadata = make(map[string]any)
			}
			rec.Metadata[columns[i]] = v
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, models.NewValidationError("dataset has a header but no rows")
	}
	return records, nil
}

// ParseJSON accepts either an array of row objects or an object with a "data" array.
func ParseJSON(data []byte) ([]models.Record, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		var wrapped struct {
			Data []map[string]any `json:"data"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil || wrapped.Data == nil {
			return nil, models.NewValidationError("invalid JSON dataset: %v", err)
		}
		rows = wrapped.Data
	}
	return FromRows(rows)
}

// FromRows converts generic row objects. Every row must have a string "text"; the "label" key
// must exist in at least one row. Non-string labels are formatted with %v.
func FromRows(rows []map[string]any) ([]models.Record, error) {
	if len(rows) == 0 {
		return nil, models.NewValidationError("dataset is empty")
	}

	var result *multierror.Error
	hasLabel := false
	records := make([]models.Record, 0, len(rows))
	for i, row := range rows {
		rec := models.Record{}
		for k, v := range row {
			switch strings.ToLower(k) {
			case ColumnText:
				s, ok := v.(string)
				if !ok {
					result = multierror.Append(result, fmt.Errorf("row %d: text must be a string", i))
					continue
				}
				rec.Text = s
			case ColumnLabel:
				hasLabel = true
				if v == nil {
					continue
				}
				label := strings.TrimSpace(fmt.Sprint(v))
				if label != "" {
					rec.Label = &label
				}
			default:
				if rec.Metadata == nil {
					rec.Metadata = make(map[string]any)
				}
				rec.Metadata[k] = v
			}
		}
		if _, ok := lookupFold(row, ColumnText); !ok {
			result = multierror.Append(result, fmt.Errorf("row %d: missing text", i))
		}
		records = append(records, rec)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, models.NewValidationError("%v", err)
	}
	if err := requireColumns(true, hasLabel); err != nil {
		return nil, err
	}
	return records, nil
}

func lookupFold(row map[string]any, key string) (any, bool) {
	for k, v := range row {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func requireColumns(hasText, hasLabel bool) error {
	var missing []string
	if !hasText {
		missing = append(missing, ColumnText)
	}
	if !hasLabel {
		missing = append(missing, ColumnLabel)
	}
	if len(missing) > 0 {
		return models.NewValidationError("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// WriteCSV writes records with a text,label header. Unlabeled records get an empty label cell.
func WriteCSV(w io.Writer, records []models.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnText, ColumnLabel}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{r.Text, r.LabelValue()}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
