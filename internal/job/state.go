package job

// State is one stage of a job's strictly sequential lifecycle. A job moves
// forward one state at a time; a failure in any state jumps straight to
// Done, skipping everything in between. There is no other branching.
type State int32

const (
	Pending State = iota
	Provisioning
	LockfileGenerating
	CacheRestoring
	Testing
	CacheSaving
	Done
)

// String returns the state's declaration-style name for logs and errors.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Provisioning:
		return "Provisioning"
	case LockfileGenerating:
		return "LockfileGenerating"
	case CacheRestoring:
		return "CacheRestoring"
	case Testing:
		return "Testing"
	case CacheSaving:
		return "CacheSaving"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}
