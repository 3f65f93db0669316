package publisher

// State is the lifecycle state of a Publisher.
type State int

const (
	// StateIdle means the publisher is off and not attempting to sample.
	// Permission denial also lands here, with no retry.
	StateIdle State = iota

	// StateRequestingPermission means the publisher is waiting for the
	// platform to confirm location access.
	StateRequestingPermission

	// StateSampling means the publisher is emitting position samples.
	StateSampling

	// StateStopped means sampling was explicitly ended. Re-enabling moves
	// back through StateRequestingPermission.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting_permission"
	case StateSampling:
		return "sampling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
