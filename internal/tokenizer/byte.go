package tokenizer

const byteTokenizerName = "byte"

// Byte maps every UTF-8 byte to its own token ID in [0, 256).
type Byte struct{}

// NewByte creates a byte tokenizer.
func NewByte() *Byte {
	return &Byte{}
}

// Encode returns one token per byte of text.
func (*Byte) Encode(text string) ([]int32, error) {
	out := make([]int32, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = int32(text[i])
	}
	return out, nil
}

// Decode reassembles the bytes. IDs outside [0, 256) are dropped.
func (*Byte) Decode(tokens []int32) (string, error) {
	buf := make([]byte, 0, len(tokens))
	for _, t := range tokens {
		if t >= 0 && t < 256 {
			buf = append(buf, byte(t))
		}
	}
	return string(buf), nil
}

// VocabSize returns 256.
func (*Byte) VocabSize() int {
	return 256
}

// Name returns "byte".
func (*Byte) Name() string {
	return byteTokenizerName
}
