// Package tokenizer turns text into token IDs for the embedding models.
//
// The tokenizer package implements:
//   - Byte: one token per UTF-8 byte, no external data
//   - TikToken: BPE tokenizer used by GPT-3/GPT-4 (cl100k_base, p50k_base)
//   - Bucketer: folds a token sequence into a fixed vocabulary by hashing
//
// Example usage:
//
//	tok, err := tokenizer.New("tiktoken")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Map the sequence to one embedding row out of 512.
//	idx := tokenizer.NewBucketer(512).Bucket(tokens)
package tokenizer
