package service

// Progress receives coarse stage names while a long operation runs, so
// the CLI can show something between network round trips. Callers may
// pass nil.
type Progress func(stage string)

const (
	StageFetch      = "fetch"
	StageChunk      = "chunk"
	StageEmbed      = "embed"
	StageIndex      = "index"
	StagePersist    = "persist"
	StageRetrieve   = "retrieve"
	StageSynthesize = "synthesize"
	StageVerify     = "verify"
	StageDone       = "done"
)

func report(p Progress, stage string) {
	if p != nil {
		p(stage)
	}
}
