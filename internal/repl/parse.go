package repl

import (
	"errors"
	"fmt"
	"strings"

	"orderdesk/internal/desk"
)

// Kind enumerates the closed set of REPL operations.
type Kind int

const (
	KindHelp Kind = iota
	KindNewOrder
	KindAddBot
	KindRemoveBot
	KindStatus
	KindClear
	KindExit
)

// Command is one parsed input line.
type Command struct {
	Kind Kind
	Tier desk.Priority // meaningful for KindNewOrder only
}

var ErrEmpty = errors.New("empty command")

// UnknownCommandError carries the rejected input so the caller can print a
// usage message. Parsing never touches the desk.
type UnknownCommandError struct{ Input string }

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Input)
}

// Parse maps a line to a command. Commands are case-sensitive; surrounding
// whitespace is ignored.
func Parse(line string) (Command, error) {
	switch cmd := strings.TrimSpace(line); cmd {
	case "":
		return Command{}, ErrEmpty
	case "help", "h", "?":
		return Command{Kind: KindHelp}, nil
	case "new-normal", "nn":
		return Command{Kind: KindNewOrder, Tier: desk.Normal}, nil
	case "new-vip", "nv":
		return Command{Kind: KindNewOrder, Tier: desk.VIP}, nil
	case "+bot", "add-bot":
		return Command{Kind: KindAddBot}, nil
	case "-bot", "remove-bot":
		return Command{Kind: KindRemoveBot}, nil
	case "status":
		return Command{Kind: KindStatus}, nil
	case "clear", "cls":
		return Command{Kind: KindClear}, nil
	case "exit", "quit":
		return Command{Kind: KindExit}, nil
	default:
		return Command{}, &UnknownCommandError{Input: cmd}
	}
}

func helpText() string {
	return `Commands:
  new-normal | nn          - create a Normal order
  new-vip    | nv          - create a VIP order
  +bot       | add-bot     - add a bot to the pool
  -bot       | remove-bot  - remove the newest bot
  status                   - show desk status
  clear      | cls         - clear the screen
  help       | h | ?       - this help
  exit       | quit        - graceful shutdown
`
}
