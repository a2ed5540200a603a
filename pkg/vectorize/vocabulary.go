package vectorize

import (
	"sort"
	"strings"
)

// terms returns the terms of one document: unigrams when n == 1, otherwise space-joined
// n-grams over adjacent tokens.
func terms(text string, n int) []string {
	toks := tokens(text)
	if n <= 1 {
		return toks
	}
	if len(toks) < n {
		return nil
	}
	grams := make([]string, 0, len(toks)-n+1)
	for i := 0; i+n <= len(toks); i++ {
		grams = append(grams, strings.Join(toks[i:i+n], " "))
	}
	return grams
}

// buildVocabulary collects the distinct terms of the corpus. When maxFeatures > 0 only the
// maxFeatures terms with the highest document frequency are kept, ties broken lexically. The
// result is sorted and its document frequencies are returned alongside.
func buildVocabulary(docs [][]string, maxFeatures, minCount int) ([]string, map[string]int) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	vocab := make([]string, 0, len(df))
	for t, c := range df {
		if c >= minCount {
			vocab = append(vocab, t)
		}
	}

	if maxFeatures > 0 && len(vocab) > maxFeatures {
		sort.Slice(vocab, func(i, j int) bool {
			if df[vocab[i]] != df[vocab[j]] {
				return df[vocab[i]] > df[vocab[j]]
			}
			return vocab[i] < vocab[j]
		})
		vocab = vocab[:maxFeatures]
	}

	sort.Strings(vocab)
	return vocab, df
}

func indexOf(vocab []string) map[string]int {
	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}
	return index
}
