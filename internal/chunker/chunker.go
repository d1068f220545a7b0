package chunker

import "fmt"

const (
	DefaultMaxChars = 1200
	DefaultOverlap  = 150
)

// Chunker splits plain text into overlapping fixed-size windows so that
// facts near a window boundary appear in two chunks.
type Chunker struct {
	maxChars int
	overlap  int
}

func New(maxChars, overlap int) (*Chunker, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("max chars must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", maxChars, overlap)
	}
	return &Chunker{maxChars: maxChars, overlap: overlap}, nil
}

func Default() *Chunker {
	c, _ := New(DefaultMaxChars, DefaultOverlap)
	return c
}

// Split is a pure greedy sliding window over runes. Empty input yields no
// chunks; input shorter than the window yields a single chunk.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	var chunks []string
	i := 0
	for i < n {
		j := i + c.maxChars
		if j > n {
			j = n
		}
		chunks = append(chunks, string(runes[i:j]))
		if j == n {
			break
		}
		i = j - c.overlap
	}
	return chunks
}

func (c *Chunker) MaxChars() int {
	return c.maxChars
}

func (c *Chunker) Overlap() int {
	return c.overlap
}
