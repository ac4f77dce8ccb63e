// Package tokenizer provides text tokenization for text classification
// datasets.
//
// Supported tokenizers:
//   - Byte: one token per UTF-8 byte, no external data
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base)
//
// Example usage:
//
//	import "github.com/born-ml/shardtrain/tokenizer"
//
//	tok, err := tokenizer.New("tiktoken")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Hash the sequence into one of 512 embedding rows
//	row := tokenizer.NewBucketer(512).Bucket(tokens)
package tokenizer

import (
	"github.com/born-ml/shardtrain/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// ErrUnknownTokenizer is returned by New for an unsupported name.
var ErrUnknownTokenizer = tokenizer.ErrUnknownTokenizer

// New returns the tokenizer registered under name.
func New(name string) (Tokenizer, error) {
	return tokenizer.New(name)
}

// NewByte creates a byte-level tokenizer.
func NewByte() Tokenizer {
	return tokenizer.NewByte()
}

// NewTikToken loads a tiktoken encoding.
func NewTikToken(encodingName string) (Tokenizer, error) {
	tok, err := tokenizer.NewTikToken(encodingName)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Bucketer hashes token sequences into a fixed number of rows.
type Bucketer = tokenizer.Bucketer

// NewBucketer creates a bucketer with size rows.
func NewBucketer(size int) *Bucketer {
	return tokenizer.NewBucketer(size)
}
