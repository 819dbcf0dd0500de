package runner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Commands understood by the runner.
const (
	CmdQuit  = "quit"
	CmdState = "state"
	CmdReset = "reset"
	CmdHelp  = "help"
)

// Line is one parsed input line: either a command or an intent.
type Line struct {
	Command string
	Intent  *domain.Intent
}

// Empty reports whether the line carries nothing to do.
func (l Line) Empty() bool {
	return l.Command == "" && l.Intent == nil
}

// ParseLine reads one line of user input.
//
//	/quit                         command
//	YesIntent                     intent without params
//	OrderIntent item=pizza n=2    params as strings
//	OrderIntent note="two words"  quoted values
//	{"name":"OrderIntent","params":{"n":2}}   JSON intent
func ParseLine(s string) (Line, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Line{}, nil
	case s == "exit" || s == "quit":
		return Line{Command: CmdQuit}, nil
	case strings.HasPrefix(s, "/"):
		fields := strings.Fields(s[1:])
		if len(fields) == 0 {
			return Line{Command: CmdHelp}, nil
		}
		cmd := strings.ToLower(fields[0])
		if cmd == "exit" {
			cmd = CmdQuit
		}
		return Line{Command: cmd}, nil
	case strings.HasPrefix(s, "{"):
		var intent domain.Intent
		if err := json.Unmarshal([]byte(s), &intent); err != nil {
			return Line{}, fmt.Errorf("invalid JSON intent: %w", err)
		}
		return Line{Intent: &intent}, nil
	}

	tokens, err := tokenize(s)
	if err != nil {
		return Line{}, err
	}
	intent := &domain.Intent{Name: tokens[0]}
	for _, tok := range tokens[1:] {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return Line{}, fmt.Errorf("expected key=value, got %q", tok)
		}
		if intent.Params == nil {
			intent.Params = make(map[string]any)
		}
		intent.Params[key] = value
	}
	return Line{Intent: intent}, nil
}

// tokenize splits on spaces, keeping double-quoted runs together.
func tokenize(s string) ([]string, error) {
	var (
		tokens []string
		cur    strings.Builder
		quoted bool
		dirty  bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			dirty = true
		case r == ' ' && !quoted:
			if dirty {
				tokens = append(tokens, cur.String())
				cur.Reset()
				dirty = false
			}
		default:
			cur.WriteRune(r)
			dirty = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if dirty {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
