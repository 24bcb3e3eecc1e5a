// Package recommend implements the offline recommendation pipeline: TF-IDF
// vectorization with truncated SVD (LSA embeddings) and a brute-force
// nearest-neighbor index over the resulting vectors.
package recommend

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// TFIDFOptions hold the vectorizer settings. The defaults are English stop
// words, 1-2 grams, min_df=3, max_df=0.85, sublinear TF, smoothed IDF, and
// L2-normalized rows.
type TFIDFOptions struct {
	MinDF       int     // drop terms appearing in fewer documents
	MaxDF       float64 // drop terms appearing in more than this fraction of documents
	NgramMax    int     // 1 = unigrams only, 2 = unigrams + bigrams
	SublinearTF bool    // tf -> 1 + ln(tf)
}

// DefaultTFIDFOptions returns the pipeline defaults.
func DefaultTFIDFOptions() TFIDFOptions {
	return TFIDFOptions{MinDF: 3, MaxDF: 0.85, NgramMax: 2, SublinearTF: true}
}

// SparseVec is one TF-IDF document row in coordinate form, indices ascending.
type SparseVec struct {
	Idx []int
	Val []float64
}

// Dot computes the sparse dot product of two rows.
func (a SparseVec) Dot(b SparseVec) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Idx) && j < len(b.Idx) {
		switch {
		case a.Idx[i] == b.Idx[j]:
			sum += a.Val[i] * b.Val[j]
			i++
			j++
		case a.Idx[i] < b.Idx[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Vectorizer converts documents to L2-normalized TF-IDF rows.
type Vectorizer struct {
	opts  TFIDFOptions
	vocab map[string]int
	idf   []float64
}

// NewVectorizer creates a vectorizer with the given options.
func NewVectorizer(opts TFIDFOptions) *Vectorizer {
	if opts.NgramMax < 1 {
		opts.NgramMax = 1
	}
	return &Vectorizer{opts: opts}
}

// VocabSize returns the number of retained terms after fitting.
func (v *Vectorizer) VocabSize() int { return len(v.vocab) }

// FitTransform learns the vocabulary and IDF weights from docs and returns
// the TF-IDF matrix, one sparse row per document.
func (v *Vectorizer) FitTransform(docs []string) []SparseVec {
	n := len(docs)
	if n == 0 {
		return nil
	}

	termCounts := make([]map[string]int, n)
	docFreq := make(map[string]int)
	for i, doc := range docs {
		counts := countTerms(doc, v.opts.NgramMax)
		termCounts[i] = counts
		for term := range counts {
			docFreq[term]++
		}
	}

	// Vocabulary pruning by document frequency, sorted for determinism.
	maxDF := n
	if v.opts.MaxDF > 0 && v.opts.MaxDF < 1 {
		maxDF = int(v.opts.MaxDF * float64(n))
	}
	minDF := v.opts.MinDF
	if minDF < 1 {
		minDF = 1
	}

	terms := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= minDF && df <= maxDF {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocab[term] = i
		// Smoothed IDF: ln((1+n)/(1+df)) + 1.
		v.idf[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	rows := make([]SparseVec, n)
	for i, counts := range termCounts {
		rows[i] = v.transformCounts(counts)
	}
	return rows
}

// Transform maps a single document onto the fitted vocabulary.
func (v *Vectorizer) Transform(doc string) SparseVec {
	return v.transformCounts(countTerms(doc, v.opts.NgramMax))
}

func (v *Vectorizer) transformCounts(counts map[string]int) SparseVec {
	idxs := make([]int, 0, len(counts))
	vals := make(map[int]float64, len(counts))
	for term, count := range counts {
		col, ok := v.vocab[term]
		if !ok {
			continue
		}
		tf := float64(count)
		if v.opts.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		idxs = append(idxs, col)
		vals[col] = tf * v.idf[col]
	}
	sort.Ints(idxs)

	row := SparseVec{Idx: idxs, Val: make([]float64, len(idxs))}
	var norm float64
	for i, col := range idxs {
		row.Val[i] = vals[col]
		norm += row.Val[i] * row.Val[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row.Val {
			row.Val[i] /= norm
		}
	}
	return row
}

// countTerms tokenizes a document and counts unigrams (and bigrams when
// ngramMax >= 2). Tokens are lowercase runs of two or more word characters;
// stop words are removed before ngram construction.
func countTerms(doc string, ngramMax int) map[string]int {
	tokens := tokenize(doc)
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	if ngramMax >= 2 {
		for i := 0; i+1 < len(tokens); i++ {
			counts[tokens[i]+" "+tokens[i+1]]++
		}
	}
	return counts
}

func tokenize(doc string) []string {
	doc = strings.ToLower(doc)
	fields := strings.FieldsFunc(doc, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
