package wsfeed

import (
	"fmt"

	"overlayinput/internal/core/overlay"
)

const (
	cmdSyncCursor              = "sync_cursor"
	cmdUpdateInteractiveBounds = "update_interactive_bounds"
	cmdCheckFullscreen         = "check_fullscreen"
)

type command struct {
	Cmd   string         `json:"cmd"`
	X     *int           `json:"x,omitempty"`
	Y     *int           `json:"y,omitempty"`
	Rects []overlay.Rect `json:"rects,omitempty"`
}

// commandErrorReply answers a command the feed could not apply. It is
// distinct from the terminal "error" event.
type commandErrorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type fullscreenReply struct {
	Type  string `json:"type"`
	Value bool   `json:"value"`
}

// handleCommand applies one frontend command and returns the encoded reply,
// or nil when the command has none.
func (s *Server) handleCommand(message []byte) []byte {
	var cmd command
	if err := json.Unmarshal(message, &cmd); err != nil {
		return s.errorReply(fmt.Sprintf("invalid command: %v", err))
	}

	switch cmd.Cmd {
	case cmdSyncCursor:
		if cmd.X == nil || cmd.Y == nil {
			return s.errorReply("sync_cursor requires x and y")
		}
		pos := s.state.SyncCursor(*cmd.X, *cmd.Y)
		s.logger.Debug("Cursor synced by frontend", "x", pos.X, "y", pos.Y)
		return nil

	case cmdUpdateInteractiveBounds:
		s.state.SetInteractiveRects(cmd.Rects)
		s.logger.Debug("Interactive bounds updated", "rects", len(cmd.Rects))
		return nil

	case cmdCheckFullscreen:
		full, err := s.fullscreen()
		if err != nil {
			s.logger.Debug("Fullscreen check failed", "err", err)
			full = false
		}
		data, err := json.Marshal(fullscreenReply{Type: "fullscreen", Value: full})
		if err != nil {
			return nil
		}
		return data

	case "":
		return s.errorReply("missing cmd")
	default:
		return s.errorReply(fmt.Sprintf("unknown command %q", cmd.Cmd))
	}
}

func (s *Server) errorReply(message string) []byte {
	data, err := json.Marshal(commandErrorReply{Type: "command_error", Message: message})
	if err != nil {
		return nil
	}
	return data
}
