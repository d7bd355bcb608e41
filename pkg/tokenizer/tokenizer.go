package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the OpenAI text-embedding model family.
const DefaultEncoding = "cl100k_base"

// Tokenizer wraps a tiktoken BPE codec for one encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New constructs a Tokenizer for the given encoding name. An empty name
// selects DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %v", encoding, err)
	}

	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of BPE tokens text occupies.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Encode converts text into token ids.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode reconstructs text from token ids.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

var (
	defaultMu  sync.Mutex
	defaultTok *Tokenizer
)

// Default returns the process-wide shared Tokenizer, constructing it
// lazily on first use. The instance lives until Cleanup is called.
func Default() (*Tokenizer, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultTok == nil {
		tok, err := New(DefaultEncoding)
		if err != nil {
			return nil, err
		}
		defaultTok = tok
	}

	return defaultTok, nil
}

// Cleanup releases the shared Tokenizer. The next Default call rebuilds it.
func Cleanup() {
	defaultMu.Lock()
	defaultTok = nil
	defaultMu.Unlock()
}
