package dialogue

import "strings"

type Command int

const (
	CmdNone Command = iota
	CmdToggleMode
	CmdExit
	CmdOpenImage
	CmdChat
)

func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdToggleMode:
		return "text mode"
	case CmdExit:
		return "exit"
	case CmdOpenImage:
		return "open image"
	default:
		return "chat"
	}
}

// ParseCommand classifies one input line. Matching is case-insensitive on
// the trimmed text; anything that is not a control phrase is a chat turn.
// With images off, "open image" is forwarded to chat like any other text.
func ParseCommand(s string, images bool) Command {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CmdNone
	case "text mode":
		return CmdToggleMode
	case "exit":
		return CmdExit
	case "open image":
		if images {
			return CmdOpenImage
		}
	}
	return CmdChat
}
