package chunker_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/blogsearch/pkg/chunker"
)

// wordCodec treats whitespace-separated words as tokens, which keeps the
// chunking tests independent of the real BPE vocabulary.
type wordCodec struct {
	words map[int]string
	ids   map[string]int
}

func newWordCodec() *wordCodec {
	return &wordCodec{
		words: make(map[int]string),
		ids:   make(map[string]int),
	}
}

func (c *wordCodec) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func (c *wordCodec) Encode(text string) []int {
	var out []int
	for _, w := range strings.Fields(text) {
		id, ok := c.ids[w]
		if !ok {
			id = len(c.ids)
			c.ids[w] = id
			c.words[id] = w
		}
		out = append(out, id)
	}
	return out
}

func (c *wordCodec) Decode(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, c.words[id])
	}
	return strings.Join(parts, " ")
}

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ")
}

func TestChunkText_Empty(t *testing.T) {
	c := chunker.NewWithConfig(newWordCodec(), chunker.ChunkerConfig{})

	assert.Empty(t, c.ChunkText(""))
	assert.Empty(t, c.ChunkText("   \n\n  \t\n\n"))
}

func TestChunkText_SingleShortParagraph(t *testing.T) {
	c := chunker.NewWithConfig(newWordCodec(), chunker.ChunkerConfig{MaxTokens: 10, OverlapTokens: 2})

	chunks := c.ChunkText("just a few words")
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a few words", chunks[0].Text)
	assert.Equal(t, 4, chunks[0].TokenCount)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestChunkText_MergesParagraphsWithinBudget(t *testing.T) {
	c := chunker.NewWithConfig(newWordCodec(), chunker.ChunkerConfig{MaxTokens: 20, OverlapTokens: 2})

	chunks := c.ChunkText("one two three\n\nfour five six")
	require.Len(t, chunks, 1)
	assert.Equal(t, "one two three\n\nfour five six", chunks[0].Text)
}

func TestChunkText_OverlapBetweenChunks(t *testing.T) {
	codec := newWordCodec()
	c := chunker.NewWithConfig(codec, chunker.ChunkerConfig{MaxTokens: 10, OverlapTokens: 3})

	text := words("a", 6) + "\n\n" + words("b", 6) + "\n\n" + words("c", 6)
	chunks := c.ChunkText(text)
	require.GreaterOrEqual(t, len(chunks), 2)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.LessOrEqual(t, ch.TokenCount, 10)
	}

	// The head of each chunk after the first repeats the tail of its
	// predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		tail := prev[len(prev)-3:]
		head := strings.Fields(chunks[i].Text)[:3]
		assert.Equal(t, tail, head)
	}
}

func TestChunkText_ForceSplitsOversizedParagraph(t *testing.T) {
	c := chunker.NewWithConfig(newWordCodec(), chunker.ChunkerConfig{MaxTokens: 10, OverlapTokens: 2})

	chunks := c.ChunkText(words("short", 4) + "\n\n" + words("long", 25))
	require.Len(t, chunks, 4)

	// Buffered paragraph flushed first, then ceil(25/10) = 3 forced pieces.
	assert.Equal(t, 4, chunks[0].TokenCount)
	assert.Equal(t, 10, chunks[1].TokenCount)
	assert.Equal(t, 10, chunks[2].TokenCount)
	assert.Equal(t, 5, chunks[3].TokenCount)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestChunkText_CoverageProperties(t *testing.T) {
	c := chunker.NewWithConfig(newWordCodec(), chunker.ChunkerConfig{MaxTokens: 12, OverlapTokens: 4})

	var paras []string
	for i := 0; i < 9; i++ {
		paras = append(paras, words(fmt.Sprintf("p%d_", i), 3+i))
	}
	chunks := c.ChunkText(strings.Join(paras, "\n\n"))
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index, "indices must be gapless")
		assert.LessOrEqual(t, ch.TokenCount, 12, "chunk %d over budget", i)
		assert.NotEmpty(t, strings.TrimSpace(ch.Text))
	}
}

func TestChunkText_ClampsOverlap(t *testing.T) {
	// overlap >= max is ambiguous; it is clamped so chunking still
	// terminates and stays within budget.
	c := chunker.NewWithConfig(newWordCodec(), chunker.ChunkerConfig{MaxTokens: 5, OverlapTokens: 50})

	chunks := c.ChunkText(words("x", 4) + "\n\n" + words("y", 4) + "\n\n" + words("z", 4))
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.TokenCount, 5)
	}
}
