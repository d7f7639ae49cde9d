package repl

import (
	"errors"
	"testing"

	"orderdesk/internal/desk"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Command
	}{
		{"help", Command{Kind: KindHelp}},
		{"h", Command{Kind: KindHelp}},
		{"?", Command{Kind: KindHelp}},
		{"new-normal", Command{Kind: KindNewOrder, Tier: desk.Normal}},
		{"nn", Command{Kind: KindNewOrder, Tier: desk.Normal}},
		{"new-vip", Command{Kind: KindNewOrder, Tier: desk.VIP}},
		{"nv", Command{Kind: KindNewOrder, Tier: desk.VIP}},
		{"+bot", Command{Kind: KindAddBot}},
		{"add-bot", Command{Kind: KindAddBot}},
		{"-bot", Command{Kind: KindRemoveBot}},
		{"remove-bot", Command{Kind: KindRemoveBot}},
		{"status", Command{Kind: KindStatus}},
		{"clear", Command{Kind: KindClear}},
		{"cls", Command{Kind: KindClear}},
		{"exit", Command{Kind: KindExit}},
		{"quit", Command{Kind: KindExit}},
		{"  status  ", Command{Kind: KindStatus}}, // whitespace trimmed
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "   ", "\t"} {
		if _, err := Parse(in); !errors.Is(err, ErrEmpty) {
			t.Errorf("Parse(%q): err = %v, want ErrEmpty", in, err)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	t.Parallel()

	// Case-sensitive: upper-cased commands are rejected.
	for _, in := range []string{"STATUS", "NN", "frobnicate", "new vip"} {
		_, err := Parse(in)
		var uerr *UnknownCommandError
		if !errors.As(err, &uerr) {
			t.Errorf("Parse(%q): err = %v, want UnknownCommandError", in, err)
		}
	}
}
