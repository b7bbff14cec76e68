package format

import (
	"strings"
)

// NoLocation is substituted for %sloc and %tloc when there is nothing to locate.
const NoLocation = "@location[no location]"

// Markers bracketing values inserted by the instance pass. They live in the
// private use area and are stripped from all input before rendering.
const (
	valueOpen        = '\uE000'
	valueClose       = '\uE001'
	valueCloseStyled = '\uE002'
)

// instanceTokens are tried in this order at every position. Longer tokens that
// share a prefix with shorter ones (%sloc and %s, /%c and %c) must come first.
var instanceTokens = []string{"%admin", "%sloc", "%tloc", "%s", "%t", "%gt", "/%c", "%c"}

// Instance carries the per-invocation values used by the instance pass.
type Instance struct {
	AdminName      string
	SenderName     string
	SenderLocation *Location
	TargetName     string
	TargetLocation *Location
	GivenTarget    string
	Command        string
}

// Renderer turns message templates into styled text.
//
// Rendering runs two passes. The instance pass replaces %-codes with values
// from an Instance, wrapping each value in the name style. The style pass
// replaces @tags with style codes. A parameterized @tag(body) styles the body
// and then reverts to the ambient primary; values inserted inside such a body
// take the enclosing tag's style instead of the name style.
type Renderer struct {
	styles StyleTable
	prefix rune
	tokens []string
}

// NewRenderer creates a renderer. A zero prefix selects DefaultCodePrefix.
func NewRenderer(styles StyleTable, prefix rune) *Renderer {
	if prefix == 0 {
		prefix = DefaultCodePrefix
	}
	return &Renderer{
		styles: styles,
		prefix: prefix,
		tokens: tokenNames(),
	}
}

// Styles returns the renderer's style table.
func (r *Renderer) Styles() StyleTable { return r.styles }

// Prefix returns the style code prefix.
func (r *Renderer) Prefix() rune { return r.prefix }

// Code returns the concrete style code for a code character.
func (r *Renderer) Code(c byte) string {
	return string(r.prefix) + string(rune(c))
}

// ResolvePrimary turns a primary style given as a semantic tag ("error" or
// "@error") or colour name into its concrete code. Anything else is assumed to
// already be concrete and is returned unchanged.
func (r *Renderer) ResolvePrimary(primary string) string {
	name := strings.ToLower(strings.TrimPrefix(primary, "@"))
	if name == TagDefault {
		name = TagText
	}
	if c, ok := r.styles.code(name); ok {
		return r.Code(c)
	}
	if c, ok := literalCodes[name]; ok {
		return r.Code(c)
	}
	return primary
}

// Render runs both passes over message. The result starts with the resolved
// primary style. inst may be nil, in which case %-codes are left as text.
// "%%" always renders as a literal '%'.
func (r *Renderer) Render(message, primary string, inst *Instance) string {
	code := r.ResolvePrimary(primary)
	message = r.expand(stripMarkers(message), inst)
	return code + r.style(message, code)
}

// Escape makes text safe to embed in a template passed to Render. '%' and '@'
// are doubled so that neither pass reads them as tokens, and style codes for
// the renderer's prefix are removed.
func (r *Renderer) Escape(text string) string {
	text = stripMarkers(text)
	for {
		stripped := StripCodes(text, r.prefix)
		if stripped == text {
			break
		}
		text = stripped
	}
	return escaper.Replace(text)
}

var escaper = strings.NewReplacer("%", "%%", "@", "@@")

// Style runs only the style pass.
func (r *Renderer) Style(message, primary string) string {
	return r.style(stripMarkers(message), r.ResolvePrimary(primary))
}

// expand performs the instance pass in a single left-to-right scan.
func (r *Renderer) expand(message string, inst *Instance) string {
	if inst == nil && !strings.Contains(message, "%%") {
		return message
	}
	var b strings.Builder
	b.Grow(len(message) + 32)
	for i := 0; i < len(message); {
		c := message[i]
		if c != '%' && c != '/' {
			b.WriteByte(c)
			i++
			continue
		}
		if strings.HasPrefix(message[i:], "%%") {
			b.WriteByte('%')
			i += 2
			continue
		}
		matched := false
		for _, tok := range instanceTokens {
			if inst == nil {
				break
			}
			if !strings.HasPrefix(message[i:], tok) {
				continue
			}
			r.writeValue(&b, r.instanceValue(tok, inst))
			i += len(tok)
			matched = true
			break
		}
		if !matched {
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func (r *Renderer) instanceValue(tok string, inst *Instance) string {
	switch tok {
	case "%admin":
		return "@" + TagAdmin + inst.AdminName
	case "%sloc":
		if inst.SenderLocation == nil {
			return NoLocation
		}
		return r.Location(*inst.SenderLocation, true)
	case "%tloc":
		if inst.TargetLocation == nil {
			return NoLocation
		}
		return r.Location(*inst.TargetLocation, true)
	case "%s":
		return inst.SenderName
	case "%t":
		return inst.TargetName
	case "%gt":
		return inst.GivenTarget
	case "/%c":
		return "/" + inst.Command
	case "%c":
		return inst.Command
	}
	return tok
}

func (r *Renderer) writeValue(b *strings.Builder, value string) {
	value = stripMarkers(value)
	b.WriteRune(valueOpen)
	b.WriteString(value)
	if strings.ContainsRune(value, '@') || strings.ContainsRune(value, r.prefix) {
		b.WriteRune(valueCloseStyled)
	} else {
		b.WriteRune(valueClose)
	}
}

type segmentKind int

const (
	segLiteral segmentKind = iota
	segTag
	segTagBody
	segValueOpen
	segValueClose
	segValueCloseStyled
)

type segment struct {
	kind segmentKind
	text string
	tag  string
	body []segment
}

// tokenize splits a message into literal text, bare tags, parameterized tags
// and value markers. A parameterized body ends at the first ')' after its '('
// that is not part of an inserted value; an unterminated body runs to the end
// of the message. "@@" is a literal '@'.
func (r *Renderer) tokenize(s string) []segment {
	var segs []segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{kind: segLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		if kind, size, ok := markerAt(s, i); ok {
			flush()
			segs = append(segs, segment{kind: kind})
			i += size
			continue
		}
		if s[i] != '@' {
			lit.WriteByte(s[i])
			i++
			continue
		}
		if strings.HasPrefix(s[i:], "@@") {
			lit.WriteByte('@')
			i += 2
			continue
		}
		name := r.tagAt(s, i+1)
		if name == "" {
			lit.WriteByte('@')
			i++
			continue
		}
		flush()
		j := i + 1 + len(name)
		if isSemantic(name) && j < len(s) && s[j] == '(' {
			rest := s[j+1:]
			end := closingParen(rest)
			if end < 0 {
				segs = append(segs, segment{kind: segTagBody, tag: name, body: r.tokenize(rest)})
				i = len(s)
				continue
			}
			segs = append(segs, segment{kind: segTagBody, tag: name, body: r.tokenize(rest[:end])})
			i = j + 1 + end + 1
			continue
		}
		segs = append(segs, segment{kind: segTag, tag: name})
		i = j
	}
	flush()
	return segs
}

// closingParen returns the index of the first ')' in s outside inserted
// values, or -1.
func closingParen(s string) int {
	depth := 0
	for i, c := range s {
		switch c {
		case valueOpen:
			depth++
		case valueClose, valueCloseStyled:
			if depth > 0 {
				depth--
			}
		case ')':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (r *Renderer) tagAt(s string, i int) string {
	for _, name := range r.tokens {
		if strings.HasPrefix(s[i:], name) {
			return name
		}
	}
	return ""
}

func markerAt(s string, i int) (segmentKind, int, bool) {
	switch {
	case strings.HasPrefix(s[i:], string(valueOpen)):
		return segValueOpen, len(string(valueOpen)), true
	case strings.HasPrefix(s[i:], string(valueClose)):
		return segValueClose, len(string(valueClose)), true
	case strings.HasPrefix(s[i:], string(valueCloseStyled)):
		return segValueCloseStyled, len(string(valueCloseStyled)), true
	}
	return 0, 0, false
}

func (r *Renderer) style(message, primary string) string {
	var b strings.Builder
	b.Grow(len(message) + 16)
	r.emit(&b, r.tokenize(message), primary, "")
	return b.String()
}

// emit writes segments. enclosing is the code of the parameterized tag whose
// body is being written, or empty at the top level.
func (r *Renderer) emit(b *strings.Builder, segs []segment, primary, enclosing string) {
	ambient := primary
	if enclosing != "" {
		ambient = enclosing
	}
	for _, seg := range segs {
		switch seg.kind {
		case segLiteral:
			b.WriteString(seg.text)
		case segTag:
			b.WriteString(r.tagCode(seg.tag, primary))
		case segTagBody:
			code := r.tagCode(seg.tag, primary)
			b.WriteString(code)
			r.emit(b, seg.body, primary, code)
			b.WriteString(ambient)
		case segValueOpen:
			if enclosing == "" {
				b.WriteString(r.Code(r.styles.Name))
			}
		case segValueClose:
			if enclosing == "" {
				b.WriteString(primary)
			}
		case segValueCloseStyled:
			b.WriteString(ambient)
		}
	}
}

func (r *Renderer) tagCode(tag, primary string) string {
	if tag == TagDefault {
		return primary
	}
	if c, ok := r.styles.code(tag); ok {
		return r.Code(c)
	}
	return r.Code(literalCodes[tag])
}

func stripMarkers(s string) string {
	if !strings.ContainsAny(s, string([]rune{valueOpen, valueClose, valueCloseStyled})) {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case valueOpen, valueClose, valueCloseStyled:
			return -1
		}
		return r
	}, s)
}
