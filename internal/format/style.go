package format

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultCodePrefix introduces a style code in rendered text ("&b").
const DefaultCodePrefix = '&'

// Semantic style tags. Each one maps to a configurable style code.
const (
	TagDefault  = "default"
	TagAdmin    = "admin"
	TagName     = "name"
	TagText     = "text"
	TagError    = "error"
	TagLocation = "location"
)

// semanticTags lists the tags that accept the parameterized @tag(body) form.
var semanticTags = []string{TagDefault, TagAdmin, TagName, TagText, TagError, TagLocation}

// literalCodes are the fixed colour and formatting tokens. They have no
// parameterized form.
var literalCodes = map[string]byte{
	"black":        '0',
	"dark_blue":    '1',
	"dark_green":   '2',
	"dark_aqua":    '3',
	"dark_red":     '4',
	"dark_purple":  '5',
	"gold":         '6',
	"gray":         '7',
	"dark_gray":    '8',
	"blue":         '9',
	"green":        'a',
	"aqua":         'b',
	"red":          'c',
	"light_purple": 'd',
	"yellow":       'e',
	"white":        'f',
	"obfuscated":   'k',
	"bold":         'l',
	"strike":       'm',
	"underline":    'n',
	"italic":       'o',
	"reset":        'r',
}

// StyleTable maps semantic tags to concrete style codes. Codes are the single
// character that follows the code prefix (for example "b" for aqua).
type StyleTable struct {
	Text     byte
	Error    byte
	Name     byte
	Admin    byte
	Location byte
}

// DefaultStyles mirrors the stock plugin colours: aqua text, red errors, white
// names, light purple admin and green locations.
func DefaultStyles() StyleTable {
	return StyleTable{
		Text:     'b',
		Error:    'c',
		Name:     'f',
		Admin:    'd',
		Location: 'a',
	}
}

// ParseStyleTable builds a table from configured colour values. Each value may be
// a code character ("b") or a colour name ("aqua"). Empty values keep the default.
func ParseStyleTable(values map[string]string) (StyleTable, error) {
	table := DefaultStyles()
	for tag, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		code, err := parseCode(value)
		if err != nil {
			return StyleTable{}, fmt.Errorf("style %q: %w", tag, err)
		}
		switch tag {
		case TagText:
			table.Text = code
		case TagError:
			table.Error = code
		case TagName:
			table.Name = code
		case TagAdmin:
			table.Admin = code
		case TagLocation:
			table.Location = code
		default:
			return StyleTable{}, fmt.Errorf("unknown style tag %q", tag)
		}
	}
	return table, nil
}

func parseCode(value string) (byte, error) {
	lower := strings.ToLower(value)
	if code, ok := literalCodes[lower]; ok {
		return code, nil
	}
	if len(lower) == 1 && isCodeChar(lower[0]) {
		return lower[0], nil
	}
	return 0, fmt.Errorf("invalid style code %q", value)
}

func isCodeChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'k' && c <= 'o') || c == 'r'
}

// code returns the code for a semantic tag. TagDefault has no code of its own
// and reports false; it always resolves to the ambient primary.
func (t StyleTable) code(tag string) (byte, bool) {
	switch tag {
	case TagText:
		return t.Text, true
	case TagError:
		return t.Error, true
	case TagName:
		return t.Name, true
	case TagAdmin:
		return t.Admin, true
	case TagLocation:
		return t.Location, true
	}
	return 0, false
}

// tokenNames returns every style token name, longest first, so that the
// tokenizer always prefers the most specific match at a position.
func tokenNames() []string {
	names := make([]string, 0, len(semanticTags)+len(literalCodes))
	names = append(names, semanticTags...)
	for name := range literalCodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

func isSemantic(name string) bool {
	for _, tag := range semanticTags {
		if tag == name {
			return true
		}
	}
	return false
}

// StripCodes removes every style code introduced by prefix.
func StripCodes(s string, prefix rune) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == prefix && i+1 < len(runes) && runes[i+1] < 128 && isCodeChar(byte(runes[i+1])) {
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}
