package model

// Manifest describes a persisted corpus. Rewritten on every append.
type Manifest struct {
	EmbedModel string `json:"embed_model"`
	Dim        int    `json:"dim"`
	DocCount   int    `json:"doc_count"`
}
