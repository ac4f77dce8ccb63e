package tokenizer

import (
	"github.com/pkg/errors"
)

// ErrUnknownTokenizer is returned by New for an unsupported name.
var ErrUnknownTokenizer = errors.New("unknown tokenizer")

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must be safe for concurrent Encode calls.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// Name returns the tokenizer name.
	Name() string
}

// New returns the tokenizer registered under name: "byte", or "tiktoken"
// (cl100k_base), or any tiktoken encoding name.
func New(name string) (Tokenizer, error) {
	switch name {
	case "", byteTokenizerName:
		return NewByte(), nil
	case "tiktoken":
		name = encodingCL100kBase
	case encodingCL100kBase, encodingP50kBase, encodingR50kBase:
	default:
		return nil, errors.Wrapf(ErrUnknownTokenizer, "%q", name)
	}
	tok, err := NewTikToken(name)
	if err != nil {
		return nil, err
	}
	return tok, nil
}
