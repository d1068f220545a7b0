package model

// GroundedAnswer is the schema the synthesizer must produce: a one-line
// summary, exactly three cited bullets and the set of evidence ids used.
type GroundedAnswer struct {
	TLDR    string   `json:"tldr"`
	Bullets []string `json:"bullets"`
	UsedIDs []int    `json:"used_ids"`
}

// GenerationFailure is returned instead of an error when the generator
// exhausted its corrective retry. Raw carries the last unparsed output so
// callers can render a diagnostic.
type GenerationFailure struct {
	Reason string `json:"error"`
	Raw    string `json:"raw"`
}

// SourceItem references one evidence chunk in the final answer. ID is the
// 1-based label the generator saw.
type SourceItem struct {
	ID    int     `json:"id"`
	URL   string  `json:"url"`
	Chunk int     `json:"chunk"`
	Score float32 `json:"score"`
}

type AnswerResult struct {
	CorpusID      string               `json:"corpus_id"`
	Retriever     string               `json:"retriever"`
	TLDR          string               `json:"tldr"`
	Bullets       []string             `json:"bullets"`
	Sources       []SourceItem         `json:"sources"`
	Verification  []VerificationResult `json:"verification,omitempty"`
	Failure       *GenerationFailure   `json:"failure,omitempty"`
	VerifyFailure *GenerationFailure   `json:"verify_failure,omitempty"`
}

type IngestResult struct {
	CorpusID      string   `json:"corpus_id"`
	ChunksIndexed int      `json:"chunks_indexed"`
	Dim           int      `json:"dim"`
	FailedURLs    []string `json:"failed_urls,omitempty"`
}
