package ipc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/cardscan/internal/capture"
)

// Command is one request a client may send to the session owner.
type Command string

const (
	// CommandStatus is answered by every owner and never changes screen state.
	CommandStatus  Command = "status"
	CommandFlip    Command = "flip"
	CommandFlash   Command = "flash"
	CommandCapture Command = "capture"
	CommandReset   Command = "reset"
	CommandExit    Command = "exit"
)

// ErrUnknownCommand is returned for commands outside the intent set.
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand normalizes raw and checks it against the known commands.
func ParseCommand(raw string) (Command, error) {
	cmd := Command(strings.ToLower(strings.TrimSpace(raw)))
	switch cmd {
	case CommandStatus, CommandFlip, CommandFlash, CommandCapture, CommandReset, CommandExit:
		return cmd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, raw)
	}
}

// Intent reports whether cmd asks the screen to change state.
func (c Command) Intent() bool {
	return c != CommandStatus && c.valid()
}

func (c Command) valid() bool {
	parsed, err := ParseCommand(string(c))
	return err == nil && parsed == c
}

// Request is one JSON line sent by a client.
type Request struct {
	Command Command `json:"command"`
}

// Response is one JSON line written back by the socket owner.
type Response struct {
	OK       bool           `json:"ok"`
	State    string         `json:"state,omitempty"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
	Snapshot *capture.State `json:"snapshot,omitempty"`
}

// Failure builds an error response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
