package model

import "fmt"

// Chunk is a bounded slice of a fetched document, the unit of embedding
// and citation. Identified by (URL, Seq); never mutated after ingest.
type Chunk struct {
	URL  string `json:"url"`
	Seq  int    `json:"chunk"`
	Text string `json:"text"`
}

func (c Chunk) Key() string {
	return fmt.Sprintf("%s#%d", c.URL, c.Seq)
}

// Hit is one retrieval result. Row is the chunk's insertion row in the
// index, carried so fusion never has to re-locate a chunk by value.
type Hit struct {
	Chunk Chunk
	Score float32
	Row   int
}
