package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandScan    Command = "scan"
	CommandFlip    Command = "flip"
	CommandFlash   Command = "flash"
	CommandCapture Command = "capture"
	CommandReset   Command = "reset"
	CommandExit    Command = "exit"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandScan:    {},
	CommandFlip:    {},
	CommandFlash:   {},
	CommandCapture: {},
	CommandReset:   {},
	CommandExit:    {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Intent reports whether cmd is a screen intent forwarded to the running session.
func (c Command) Intent() bool {
	switch c {
	case CommandFlip, CommandFlash, CommandCapture, CommandReset, CommandExit:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  scan      Open the capture screen and serve intents until exit
  flip      Switch between the back and front lens
  flash     Toggle the torch
  capture   Capture and recognize the card in frame
  reset     Clear the shown result and return to scanning
  exit      Close the capture screen
  status    Print the current screen state
  devices   List configured cameras and audio sinks
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/cardscan/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
