package vector

import (
	"regexp"
	"strings"
)

// Chunking targets. Text is split at paragraph boundaries first, then
// sentences, aiming for chunks between minChunkChars and maxChunkChars
// with chunkOverlap characters carried across the boundary so a
// sentence cut in two is fully present in one chunk.
const (
	minChunkChars = 300
	maxChunkChars = 800
	chunkOverlap  = 50
)

var (
	paragraphSplit = regexp.MustCompile(`\n{2,}`)
	sentenceEnd    = regexp.MustCompile(`([.!?。！？])\s+`)
)

// Chunker splits block text into embedding-sized pieces.
type Chunker struct {
	MinChars int
	MaxChars int
	Overlap  int
}

// NewChunker creates a chunker with the default targets.
func NewChunker() *Chunker {
	return &Chunker{
		MinChars: minChunkChars,
		MaxChars: maxChunkChars,
		Overlap:  chunkOverlap,
	}
}

// Split divides text into chunks. Whitespace-only input yields nothing.
// Counts are in runes so multi-byte scripts are not over-split.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= c.MaxChars {
		return []string{text}
	}

	var pieces []string
	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= c.MaxChars {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, c.splitSentences(para)...)
	}

	return c.assemble(pieces)
}

// splitSentences breaks an oversized paragraph at sentence boundaries,
// hard-splitting any single sentence longer than the max.
func (c *Chunker) splitSentences(para string) []string {
	marked := sentenceEnd.ReplaceAllString(para, "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		for runeLen(s) > c.MaxChars {
			runes := []rune(s)
			out = append(out, string(runes[:c.MaxChars]))
			s = string(runes[c.MaxChars:])
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// assemble merges pieces into chunks within [MinChars, MaxChars] and
// applies the overlap between consecutive chunks.
func (c *Chunker) assemble(pieces []string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
		currentLen = 0
	}

	for _, piece := range pieces {
		pieceLen := runeLen(piece)
		if currentLen > 0 && currentLen+pieceLen+1 > c.MaxChars {
			flush()
		}
		if currentLen > 0 {
			current.WriteString("\n")
			currentLen++
		}
		current.WriteString(piece)
		currentLen += pieceLen
		if currentLen >= c.MinChars && currentLen >= c.MaxChars-c.Overlap {
			flush()
		}
	}
	flush()

	if c.Overlap <= 0 || len(chunks) < 2 {
		return chunks
	}

	// Carry the tail of each chunk into the head of the next.
	overlapped := make([]string, len(chunks))
	overlapped[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := prev
		if len(prev) > c.Overlap {
			tail = prev[len(prev)-c.Overlap:]
		}
		overlapped[i] = string(tail) + chunks[i]
	}
	return overlapped
}

func runeLen(s string) int {
	return len([]rune(s))
}
