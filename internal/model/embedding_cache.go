package model

// EmbeddingCache is one row of the shared embedding cache, keyed by
// (model, content hash) so the same text never pays for a second
// provider call across processes.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
