package sw

// State is a controller's position in its lifecycle.
type State int

const (
	// StateParsed is a new controller that has not installed yet.
	StateParsed State = iota

	// StateInstalling means the manifest is being fetched.
	StateInstalling

	// StateInstalled means the region is fully populated and the controller
	// is waiting to be activated.
	StateInstalled

	// StateActivating means stale regions are being removed.
	StateActivating

	// StateActivated means the controller serves fetches.
	StateActivated

	// StateRedundant means install failed or a newer controller replaced it.
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
