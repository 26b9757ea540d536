// SPDX-License-Identifier: MIT
package sink

// VolumeStep is the change applied by one volume key press.
const VolumeStep = 8

// Command is a local stand-in for a remote control action.
type Command int

const (
	CmdNone Command = iota
	CmdVolumeUp
	CmdVolumeDown
	CmdTogglePlayback
	CmdToggleConnected
	CmdQuit
)

// CommandForKey maps a key name to its command. Both the terminal display and
// the SDL window use the same bindings.
func CommandForKey(key string) Command {
	switch key {
	case "+", "=", "up":
		return CmdVolumeUp
	case "-", "_", "down":
		return CmdVolumeDown
	case " ", "space", "p":
		return CmdTogglePlayback
	case "c":
		return CmdToggleConnected
	case "q", "esc", "ctrl+c":
		return CmdQuit
	}
	return CmdNone
}

// Apply performs cmd on the state and reports whether it asks to quit.
func (s *State) Apply(cmd Command) (quit bool) {
	switch cmd {
	case CmdVolumeUp:
		s.AdjustVolume(VolumeStep)
	case CmdVolumeDown:
		s.AdjustVolume(-VolumeStep)
	case CmdTogglePlayback:
		s.TogglePlayback()
	case CmdToggleConnected:
		s.SetConnected(!s.Connected())
	case CmdQuit:
		return true
	}
	return false
}
