package command

import "fmt"

// Command is what the user has asked the interactive loop to do
type Command int

const (
	None          Command = iota // No command yet
	Play                         // Advance one frame per poll
	Stay                         // Pause, and follow the position trackbar
	PrevFrame                    // Step back one frame, then Stay
	NextFrame                    // Step forward one frame, then Stay
	Export                       // Export the dataset, then Exit
	RemoveLast                   // Remove the most recently drawn rectangle
	DrawPrimary                  // Draw a rectangle of the primary category
	DrawAlternate                // Draw a rectangle of the alternate category
	Accept                       // Keep the candidate image
	Reject                       // Skip the candidate image
	Undo                         // Go back to the previous candidate image
	Exit
)

func (c Command) String() string {
	switch c {
	case None:
		return "none"
	case Play:
		return "play"
	case Stay:
		return "stay"
	case PrevFrame:
		return "prev_frame"
	case NextFrame:
		return "next_frame"
	case Export:
		return "export"
	case RemoveLast:
		return "remove_last"
	case DrawPrimary:
		return "draw_primary"
	case DrawAlternate:
		return "draw_alternate"
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case Undo:
		return "undo"
	case Exit:
		return "exit"
	}
	panic("Unknown command")
}

// Parse is the inverse of String
func Parse(s string) (Command, error) {
	for c := None; c <= Exit; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return None, fmt.Errorf("Unknown command '%v'", s)
}

// NoKey is what a key poll returns when nothing was pressed before the timeout
const NoKey = -1

const (
	KeyEscape = 27
	KeyEnter  = 13
)

// KeyMap translates raw key codes into commands.
// Resolve is total: keys that are not in the table leave the current command unchanged.
type KeyMap map[int]Command

// Resolve returns the command for 'key', or 'current' if the key is unmapped (or NoKey)
func (m KeyMap) Resolve(key int, current Command) Command {
	if key == NoKey {
		return current
	}
	// Some platforms report modifier bits above the low byte
	if cmd, ok := m[key&0xff]; ok && key >= 0 {
		return cmd
	}
	return current
}

// PlayerKeys drives the labelling window
var PlayerKeys = KeyMap{
	's':       Stay,
	'w':       Play,
	'a':       PrevFrame,
	'd':       NextFrame,
	'e':       Export,
	'z':       RemoveLast,
	'r':       DrawPrimary,
	't':       DrawAlternate,
	KeyEscape: Exit,
}

// ReviewKeys drives the verification window
var ReviewKeys = KeyMap{
	'+':       Accept,
	'-':       Undo,
	'n':       Reject,
	KeyEnter:  Reject,
	KeyEscape: Exit,
}
