package chunker

import (
	"regexp"
	"strings"

	"github.com/xhad/blogsearch/internal/models"
	"github.com/xhad/blogsearch/internal/types"
)

type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// Chunker splits long text into token-bounded pieces along paragraph
// boundaries, seeding each new piece with the tail of the previous one so
// meaning is not cut off at a hard edge.
type Chunker struct {
	config ChunkerConfig
	codec  types.Codec
}

func NewWithConfig(codec types.Codec, config ChunkerConfig) *Chunker {
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if config.OverlapTokens == 0 {
		config.OverlapTokens = 50
	}
	// An overlap at or above the chunk size would never make progress.
	if config.OverlapTokens >= config.MaxTokens {
		config.OverlapTokens = config.MaxTokens - 1
	}

	return &Chunker{
		config: config,
		codec:  codec,
	}
}

var paragraphSplit = regexp.MustCompile(`\r?\n[ \t]*\r?\n+`)

// ChunkText splits text into chunks of at most MaxTokens tokens each.
// Empty or whitespace-only input yields no chunks. Chunk indices are
// sequential from zero over the returned slice.
func (c *Chunker) ChunkText(text string) []models.Chunk {
	var chunks []models.Chunk

	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return chunks
	}

	buffer := ""
	for _, para := range paragraphs {
		paraTokens := c.codec.CountTokens(para)

		if paraTokens > c.config.MaxTokens {
			// The paragraph alone blows the budget: flush whatever is
			// buffered, then force-split it at raw token boundaries.
			if buffer != "" {
				chunks = append(chunks, c.newChunk(buffer))
				buffer = ""
			}
			chunks = append(chunks, c.forceSplit(para)...)
			continue
		}

		if buffer == "" {
			buffer = para
			continue
		}

		candidate := buffer + "\n\n" + para
		if c.codec.CountTokens(candidate) > c.config.MaxTokens {
			chunks = append(chunks, c.newChunk(buffer))
			buffer = c.overlapTail(buffer, para)
		} else {
			buffer = candidate
		}
	}

	if buffer != "" {
		chunks = append(chunks, c.newChunk(buffer))
	}

	for i := range chunks {
		chunks[i].Index = i
	}

	return chunks
}

func (c *Chunker) newChunk(text string) models.Chunk {
	return models.Chunk{
		Text:       text,
		TokenCount: c.codec.CountTokens(text),
	}
}

// forceSplit cuts an oversized paragraph into MaxTokens-sized pieces at
// raw token boundaries. Pieces may cut mid-word, which is acceptable for
// embedding purposes.
func (c *Chunker) forceSplit(para string) []models.Chunk {
	ids := c.codec.Encode(para)

	var pieces []models.Chunk
	for start := 0; start < len(ids); start += c.config.MaxTokens {
		end := start + c.config.MaxTokens
		if end > len(ids) {
			end = len(ids)
		}
		pieces = append(pieces, models.Chunk{
			Text:       c.codec.Decode(ids[start:end]),
			TokenCount: end - start,
		})
	}

	return pieces
}

// overlapTail starts the next buffer with the last OverlapTokens tokens of
// the flushed chunk followed by the new paragraph. If that combination
// would itself exceed the budget the tail is dropped, so no emitted chunk
// ever exceeds MaxTokens.
func (c *Chunker) overlapTail(flushed, para string) string {
	if c.config.OverlapTokens <= 0 {
		return para
	}

	ids := c.codec.Encode(flushed)
	keep := c.config.OverlapTokens
	if keep > len(ids) {
		keep = len(ids)
	}

	tail := strings.TrimSpace(c.codec.Decode(ids[len(ids)-keep:]))
	if tail == "" {
		return para
	}

	seeded := tail + "\n\n" + para
	if c.codec.CountTokens(seeded) > c.config.MaxTokens {
		return para
	}

	return seeded
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	return paragraphs
}
