package updater

// Update phases reported through Progress.Phase.
const (
	PhaseChecking = "checking"
	PhaseErasing  = "erasing"
	PhaseWriting  = "writing"
	PhaseParams   = "params"
	PhaseComplete = "complete"
)

// Progress describes where an update is. Current and Total are bytes for
// PhaseErasing and attempts for PhaseWriting.
type Progress struct {
	Phase   string
	Current int
	Total   int
}

// ProgressCallback is called to report update progress.
type ProgressCallback func(Progress)
