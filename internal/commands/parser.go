package commands

import (
	"regexp"
	"strings"
)

// DefaultPrefixes are the default command prefixes.
var DefaultPrefixes = []string{"/", "!"}

var commandNameRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9_-]*)(?:\s+(.*))?$`)

// Line is a command parsed from chat or console input.
type Line struct {
	// Name is the lower-cased command name without prefix
	Name string

	// Args are the whitespace-separated arguments
	Args []string

	// Prefix is the command prefix used, or "" for bare console input
	Prefix string
}

// Parser recognises command lines in chat text.
type Parser struct {
	prefixes []string
}

// NewParser creates a parser. With no prefixes DefaultPrefixes are used.
func NewParser(prefixes ...string) *Parser {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Parser{prefixes: prefixes}
}

// Parse parses a chat line. The line must start with one of the prefixes.
func (p *Parser) Parse(text string) (Line, bool) {
	text = strings.TrimSpace(text)
	prefix, ok := p.prefixOf(text)
	if !ok {
		return Line{}, false
	}
	line, ok := parseBody(text[len(prefix):])
	line.Prefix = prefix
	return line, ok
}

// ParseConsole parses a console line, where the prefix is optional.
func (p *Parser) ParseConsole(text string) (Line, bool) {
	text = strings.TrimSpace(text)
	if _, ok := p.prefixOf(text); ok {
		return p.Parse(text)
	}
	return parseBody(text)
}

// IsCommand checks if text starts with a command.
func (p *Parser) IsCommand(text string) bool {
	_, ok := p.prefixOf(strings.TrimSpace(text))
	return ok
}

// prefixOf returns the prefix text starts with. The prefix must be followed
// by a letter.
func (p *Parser) prefixOf(text string) (string, bool) {
	for _, prefix := range p.prefixes {
		if !strings.HasPrefix(text, prefix) || len(text) <= len(prefix) {
			continue
		}
		next := text[len(prefix)]
		if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
			return prefix, true
		}
	}
	return "", false
}

func parseBody(text string) (Line, bool) {
	match := commandNameRe.FindStringSubmatch(text)
	if match == nil {
		return Line{}, false
	}
	return Line{
		Name: strings.ToLower(match[1]),
		Args: SplitArgs(match[2]),
	}, true
}

// SplitArgs splits argument text on whitespace. It never returns nil.
func SplitArgs(text string) []string {
	args := strings.Fields(text)
	if args == nil {
		return []string{}
	}
	return args
}
