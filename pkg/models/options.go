package models

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// NormalizationOptions toggles the individual normalization steps. The zero value disables every
// step and makes normalization the identity function.
type NormalizationOptions struct {
	ExpandContractions bool `json:"expand_contractions" mapstructure:"expand_contractions" msgpack:"expand_contractions"`
	CorrectSpelling    bool `json:"correct_spelling"    mapstructure:"correct_spelling"    msgpack:"correct_spelling"`
	Lowercase          bool `json:"lowercase"           mapstructure:"lowercase"           msgpack:"lowercase"`
	RemovePunctuation  bool `json:"remove_punctuation"  mapstructure:"remove_punctuation"  msgpack:"remove_punctuation"`
	RemoveSymbols      bool `json:"remove_symbols"      mapstructure:"remove_symbols"      msgpack:"remove_symbols"`
	RemoveNumbers      bool `json:"remove_numbers"      mapstructure:"remove_numbers"      msgpack:"remove_numbers"`
	CollapseWhitespace bool `json:"collapse_whitespace" mapstructure:"collapse_whitespace" msgpack:"collapse_whitespace"`
	RemoveStopwords    bool `json:"remove_stopwords"    mapstructure:"remove_stopwords"    msgpack:"remove_stopwords"`
	Stem               bool `json:"stem"                mapstructure:"stem"                msgpack:"stem"`
	Lemmatize          bool `json:"lemmatize"           mapstructure:"lemmatize"           msgpack:"lemmatize"`
	DetectEntities     bool `json:"detect_entities"     mapstructure:"detect_entities"     msgpack:"detect_entities"`
}

// DefaultNormalizationOptions mirrors the defaults of the cleaning and preprocessing endpoints:
// every cleaning step, lowercasing, stopword removal and lemmatization.
func DefaultNormalizationOptions() NormalizationOptions {
	return NormalizationOptions{
		Lowercase:          true,
		RemovePunctuation:  true,
		RemoveSymbols:      true,
		RemoveNumbers:      true,
		CollapseWhitespace: true,
		RemoveStopwords:    true,
		Lemmatize:          true,
	}
}

// option keys that older clients send under different names
var optionAliases = map[string]string{
	"remove_extra_spaces":  "collapse_whitespace",
	"remove_whitespace":    "collapse_whitespace",
	"spelling_correction":  "correct_spelling",
	"correct_misspellings": "correct_spelling",
	"stemming":             "stem",
	"lemmatization":        "lemmatize",
	"ner":                  "detect_entities",
	"named_entities":       "detect_entities",
}

// NormalizationOptionsFromMap overlays a key -> bool configuration map onto base. Keys are
// matched case-insensitively with '-' treated as '_'; unknown keys are ignored.
func NormalizationOptionsFromMap(
	base NormalizationOptions,
	m map[string]any,
) (NormalizationOptions, error) {
	opts := base
	if len(m) == 0 {
		return opts, nil
	}

	normalized := make(map[string]any, len(m))
	for k, v := range m {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "-", "_")
		if alias, ok := optionAliases[key]; ok {
			key = alias
		}
		normalized[key] = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return base, err
	}
	if err := decoder.Decode(normalized); err != nil {
		return base, NewValidationError("invalid normalization options: %v", err)
	}
	return opts, nil
}

// AnyTokenStep reports whether any step requiring tokenization is enabled.
func (o NormalizationOptions) AnyTokenStep() bool {
	return o.RemoveStopwords || o.Stem || o.Lemmatize
}
