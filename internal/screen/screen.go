// Package screen is the boundary between playback logic and whatever
// draws it. Controllers hand sinks a complete RenderState after every
// transition; nothing else writes to a display.
package screen

// RenderState is the full drawable state of the player. Sinks receive
// it by value and never reach back into the controller.
type RenderState struct {
	Message      string
	MediaTitle   string
	ReceiverName string
	Mode         string
	DeviceState  string
	CastState    string
	LocalState   string
	Elapsed      string
	Total        string
	Fill         int
	Offset       int
	BarWidth     int
	VolumeLevel  float64
	Muted        bool
}

// Renderer draws a RenderState.
type Renderer interface {
	Render(RenderState)
}

// Screen is a full UI sink: it renders state, shows one-line messages
// and can be torn down.
type Screen interface {
	Renderer
	EmitMsg(string)
	Fini()
}

// Emit .
func Emit(scr Screen, s string) {
	scr.EmitMsg(s)
}

// Close .
func Close(scr Screen) {
	scr.Fini()
}
