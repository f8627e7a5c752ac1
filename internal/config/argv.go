package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseCommand turns a hook setting into argv. A blank value leaves the hook
// disabled. Errors name the setting key.
func parseCommand(key string, raw string) (CommandConfig, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CommandConfig{}, nil
	}

	argv, err := splitArgv(trimmed)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	switch {
	case argv[0] == "":
		return CommandConfig{}, fmt.Errorf("invalid %s: empty program name", key)
	case strings.HasPrefix(argv[0], "#"):
		return CommandConfig{}, fmt.Errorf("invalid %s: program %q looks like a comment; set an empty value to disable the hook", key, argv[0])
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

// splitArgv splits s with shell-like quoting. Single quotes are literal;
// inside double quotes a backslash escapes only '"' and '\'. Quoted empty
// strings are kept as empty arguments.
func splitArgv(s string) ([]string, error) {
	var (
		argv    []string
		word    strings.Builder
		inWord  bool
		quote   rune
		quoteAt int
	)

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote == '\'':
			if r == '\'' {
				quote = 0
				continue
			}
			word.WriteRune(r)
		case quote == '"':
			switch {
			case r == '"':
				quote = 0
			case r == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\'):
				i++
				word.WriteRune(runes[i])
			default:
				word.WriteRune(r)
			}
		case r == '\\':
			if i+1 == len(runes) {
				return nil, fmt.Errorf("trailing backslash at column %d", i+1)
			}
			i++
			word.WriteRune(runes[i])
			inWord = true
		case r == '\'' || r == '"':
			quote, quoteAt = r, i+1
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote opened at column %d", quote, quoteAt)
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}
