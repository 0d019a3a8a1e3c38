package controller

// DeviceState is the receiver-side connection state.
type DeviceState int

const (
	DeviceIdle DeviceState = iota
	DeviceActive
	DeviceWarning
	DeviceError
)

func (s DeviceState) String() string {
	switch s {
	case DeviceIdle:
		return "Idle"
	case DeviceActive:
		return "Active"
	case DeviceWarning:
		return "Warning"
	case DeviceError:
		return "Error"
	}
	return "Unknown"
}

// PlayerState tracks one playback leg, local or cast.
type PlayerState int

const (
	PlayerIdle PlayerState = iota
	PlayerLoading
	PlayerLoaded
	PlayerPlaying
	PlayerPaused
	PlayerStopped
	PlayerSeeking
	PlayerError
)

func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "Idle"
	case PlayerLoading:
		return "Loading"
	case PlayerLoaded:
		return "Loaded"
	case PlayerPlaying:
		return "Playing"
	case PlayerPaused:
		return "Paused"
	case PlayerStopped:
		return "Stopped"
	case PlayerSeeking:
		return "Seeking"
	case PlayerError:
		return "Error"
	}
	return "Unknown"
}

// Mode says which leg playback commands drive.
type Mode int

const (
	ModeLocal Mode = iota
	ModeCast
)

func (m Mode) String() string {
	if m == ModeCast {
		return "Cast"
	}
	return "Local"
}
