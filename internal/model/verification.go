package model

type VerificationStatus string

const (
	VerificationSupported    VerificationStatus = "supported"
	VerificationContested    VerificationStatus = "contested"
	VerificationInsufficient VerificationStatus = "insufficient"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationSupported, VerificationContested, VerificationInsufficient:
		return true
	}
	return false
}

// VerificationResult is the verdict for one claim. EvidenceIDs reference
// the 1-based labels of the evidence list shown to the generator.
type VerificationResult struct {
	Claim       string             `json:"claim"`
	Status      VerificationStatus `json:"status"`
	EvidenceIDs []int              `json:"evidence_ids"`
}
