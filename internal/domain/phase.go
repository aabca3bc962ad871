package domain

// Engine-reported phase strings. The engine's status field doubles as a
// sub-phase indicator while work is in flight; the ledger mirrors it
// verbatim into ExternalPhase for informational purposes only.
const (
	PhasePending       = "PENDING"
	PhasePreprocessing = "PREPROCESSING"
	PhaseASR           = "PROCESSING_ASR"
	PhaseLLM           = "PROCESSING_LLM"
	PhaseComplete      = "COMPLETE"
	PhaseFailed        = "FAILED"
)

// phaseProgress maps engine phases to the client-facing progress percentage.
// The numbers are fixed checkpoints, not measurements.
var phaseProgress = map[string]int{
	PhasePending:       5,
	PhasePreprocessing: 10,
	PhaseASR:           45,
	PhaseLLM:           80,
	PhaseComplete:      100,
}

// PhaseProgress returns the progress percentage for an engine phase.
// Unknown phases report zero.
func PhaseProgress(phase string) int {
	return phaseProgress[phase]
}
