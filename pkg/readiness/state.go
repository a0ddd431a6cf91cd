package readiness

// State is the lifecycle of startup verification.
type State int32

const (
	Uninitialized State = iota
	Verifying
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Verifying:
		return "verifying"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
