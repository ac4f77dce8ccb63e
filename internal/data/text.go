package data

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/tokenizer"
)

// TextSample is one labelled piece of text.
type TextSample struct {
	Text  string
	Label int
}

// NewText tokenizes every sample and hashes its token sequence into one of
// buckets embedding rows. The resulting dataset has a single input column
// holding the row index, which is what nn.Embedding consumes.
func NewText(samples []TextSample, tok tokenizer.Tokenizer, buckets, batchSize int) (*InMemory, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyDataset
	}
	b := tokenizer.NewBucketer(buckets)
	features := make([][]float64, len(samples))
	labels := make([]float64, len(samples))
	for i, s := range samples {
		ids, err := tok.Encode(s.Text)
		if err != nil {
			return nil, errors.WithMessagef(err, "encode sample %d", i)
		}
		features[i] = []float64{float64(b.Bucket(ids))}
		labels[i] = float64(s.Label)
	}
	return NewInMemory(features, labels, batchSize)
}

// colorWords is a tiny three-class vocabulary for the text demo.
var colorWords = [][]string{
	{"red", "crimson", "scarlet", "ruby", "cherry", "maroon"},
	{"blue", "navy", "azure", "cobalt", "sapphire", "indigo"},
	{"green", "olive", "lime", "emerald", "jade", "mint"},
}

// ColorCorpus draws n samples uniformly from the color vocabulary, labelled
// by color family. Words repeat, so a held-out split shares its vocabulary
// with the training part.
func ColorCorpus(n int, seed int64) []TextSample {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible synthetic data
	out := make([]TextSample, n)
	for i := range out {
		class := rng.Intn(len(colorWords))
		words := colorWords[class]
		out[i] = TextSample{Text: words[rng.Intn(len(words))], Label: class}
	}
	return out
}

// ColorClasses is the number of classes in ColorCorpus.
func ColorClasses() int {
	return len(colorWords)
}
