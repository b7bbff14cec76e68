package format

import (
	"strings"
	"testing"
)

func newTestRenderer() *Renderer {
	return NewRenderer(DefaultStyles(), DefaultCodePrefix)
}

func TestRenderNestedSubstitution(t *testing.T) {
	r := newTestRenderer()
	inst := &Instance{SenderName: "Bob", Command: "kick"}

	got := r.Render("@admin(%s) used %c", TagText, inst)

	// primary, admin-styled sender, back to primary, name-styled command, back to primary
	want := "&b" + "&dBob" + "&b used " + "&fkick" + "&b"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderInstanceTokens(t *testing.T) {
	r := newTestRenderer()
	nether := &Location{World: "world_nether", X: 10.5, Y: 64, Z: -4.2}
	inst := &Instance{
		AdminName:      "Notch",
		SenderName:     "Bob",
		SenderLocation: nether,
		TargetName:     "Alice",
		GivenTarget:    "ali",
		Command:        "kick",
	}

	tests := []struct {
		name     string
		template string
		primary  string
		want     string
	}{
		{
			name:     "sender and target",
			template: "%s hit %t",
			primary:  "text",
			want:     "&b&fBob&b hit &fAlice&b",
		},
		{
			name:     "given target",
			template: "%gt either is not online right now or doesn't exist.",
			primary:  "error",
			want:     "&c&fali&c either is not online right now or doesn't exist.",
		},
		{
			name:     "admin name",
			template: "the all-powerful %admin!",
			primary:  "text",
			want:     "&bthe all-powerful &f&dNotch&b!",
		},
		{
			name:     "slash command",
			template: "%s has tried to use /%c",
			primary:  "text",
			want:     "&b&fBob&b has tried to use &f/kick&b",
		},
		{
			name:     "help hint keeps the literal slash",
			template: "Try using @name/help %c",
			primary:  "error",
			want:     "&cTry using &f/help &fkick&c",
		},
		{
			name:     "sender location",
			template: "You are at %sloc",
			primary:  "text",
			want:     "&bYou are at &f&a(10, 64, -5)&b in &athe nether&b",
		},
		{
			name:     "missing target location",
			template: "%tloc",
			primary:  "text",
			want:     "&b&f&a[no location]&b",
		},
		{
			name:     "unknown percent code is literal",
			template: "100%x done",
			primary:  "text",
			want:     "&b100%x done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(tt.template, tt.primary, inst)
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestRenderTokenPrecedence(t *testing.T) {
	r := newTestRenderer()
	inst := &Instance{SenderName: "Bob"}

	got := r.Render("%sloc|%s", TagText, inst)
	want := "&b&f&a[no location]&b|&fBob&b"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
	if strings.Contains(StripCodes(got, '&'), "Bobloc") {
		t.Fatalf("%%sloc was read as %%s followed by loc: %q", got)
	}
}

func TestRenderValuesAreNotRescanned(t *testing.T) {
	r := newTestRenderer()
	inst := &Instance{SenderName: "%t", TargetName: "Alice", Command: "%s"}

	got := StripCodes(r.Render("%s ran %c", TagText, inst), '&')
	if got != "%t ran %s" {
		t.Fatalf("Render() stripped = %q, want %q", got, "%t ran %s")
	}
}

func TestRenderTagBodyContainingParenValue(t *testing.T) {
	r := newTestRenderer()
	inst := &Instance{SenderName: "Bob", SenderLocation: &Location{World: "world", X: 1, Y: 2, Z: 3}}

	got := r.Render("@location(%sloc) here", TagText, inst)
	if stripped := StripCodes(got, '&'); stripped != "(1, 2, 3) in the overworld here" {
		t.Fatalf("Render() stripped = %q", stripped)
	}
	if !strings.HasSuffix(got, "&b here") {
		t.Fatalf("text after the tag body should revert to primary: %q", got)
	}
}

func TestRenderEscapes(t *testing.T) {
	r := newTestRenderer()
	inst := &Instance{SenderName: "Bob", Command: "kick"}

	tests := []struct {
		name     string
		template string
		inst     *Instance
		want     string
	}{
		{name: "percent with instance", template: "100%% of %s", inst: inst, want: "100% of Bob"},
		{name: "percent without instance", template: "100%%", want: "100%"},
		{name: "escaped token", template: "%%s and /%%c", inst: inst, want: "%s and /%c"},
		{name: "at sign", template: "mail me @@red", want: "mail me @red"},
		{name: "lone at sign", template: "a @ b", want: "a @ b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodes(r.Render(tt.template, TagText, tt.inst), '&'); got != tt.want {
				t.Errorf("Render() stripped = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	r := newTestRenderer()
	inst := &Instance{AdminName: "Notch", SenderName: "Bob", Command: "kick"}

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "tokens", text: "50%sure @red /%c", want: "50%sure @red /%c"},
		{name: "admin token", text: "%admin @admin(x)", want: "%admin @admin(x)"},
		{name: "style codes removed", text: "&chello &lthere", want: "hello there"},
		{name: "codes rebuilt by stripping", text: "&&cc&&&lll", want: ""},
		{name: "marker runes removed", text: "a\uE000b\uE002", want: "ab"},
		{name: "plain", text: "hi there", want: "hi there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped := r.Escape(tt.text)
			got := r.Render("said: "+escaped, TagText, inst)
			if strings.Count(got, "&") != 1 {
				t.Errorf("escaped text produced style codes: %q", got)
			}
			if stripped := StripCodes(got, '&'); stripped != "said: "+tt.want {
				t.Errorf("Render(Escape(%q)) stripped = %q, want %q", tt.text, stripped, "said: "+tt.want)
			}
		})
	}
}

func TestRenderStripsMarkerRunes(t *testing.T) {
	r := newTestRenderer()
	got := r.Render("a\uE000b\uE001c\uE002d", TagText, nil)
	if got != "&babcd" {
		t.Fatalf("Render() = %q, want %q", got, "&babcd")
	}
}

func TestStyle(t *testing.T) {
	r := newTestRenderer()

	tests := []struct {
		name    string
		message string
		primary string
		want    string
	}{
		{"plain text", "hello", "text", "hello"},
		{"bare tags", "@error oops @default ok", "text", "&c oops &b ok"},
		{"parameterized reverts to primary", "a @name(b) c", "error", "a &fb&c c"},
		{"body ends at first paren", "@error(x) y)", "text", "&cx&b y)"},
		{"unterminated body runs to end", "@error(oops", "text", "&coops&b"},
		{"literal tag inside body", "@error(bad @bold thing)", "text", "&cbad &l thing&b"},
		{"literal tags have no body form", "@gold(x)", "text", "&6(x)"},
		{"longest tag wins", "@dark_red!", "text", "&4!"},
		{"unknown tag is literal", "mail me @ home or @nobody", "text", "mail me @ home or @nobody"},
		{"default body uses primary", "@default(x)", "error", "&cx&c"},
		{"empty message", "", "text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Style(tt.message, tt.primary)
			if got != tt.want {
				t.Errorf("Style(%q, %q) = %q, want %q", tt.message, tt.primary, got, tt.want)
			}
		})
	}
}

func TestStyleIdempotent(t *testing.T) {
	r := newTestRenderer()
	inputs := []string{
		"@admin(%s) used %c",
		"@error(Not enough arguments!) Try @name/help",
		"@location(1, 2, 3)@text in @location(the end)",
		"@error(unterminated",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := r.Style(in, "text")
			twice := r.Style(once, "text")
			if once != twice {
				t.Errorf("Style not idempotent: %q then %q", once, twice)
			}
		})
	}
}

func TestResolvePrimary(t *testing.T) {
	r := newTestRenderer()

	tests := []struct {
		primary string
		want    string
	}{
		{"error", "&c"},
		{"@admin", "&d"},
		{"default", "&b"},
		{"TEXT", "&b"},
		{"gold", "&6"},
		{"&e", "&e"},
	}

	for _, tt := range tests {
		t.Run(tt.primary, func(t *testing.T) {
			if got := r.ResolvePrimary(tt.primary); got != tt.want {
				t.Errorf("ResolvePrimary(%q) = %q, want %q", tt.primary, got, tt.want)
			}
		})
	}
}

func TestRenderCustomPrefix(t *testing.T) {
	r := NewRenderer(DefaultStyles(), '§')

	got := r.Render("@error(x)", "text", nil)
	if got != "§b§cx§b" {
		t.Fatalf("Render() = %q, want %q", got, "§b§cx§b")
	}
	if StripCodes(got, '§') != "x" {
		t.Fatalf("StripCodes() = %q, want %q", StripCodes(got, '§'), "x")
	}
}

func TestRenderCustomStyles(t *testing.T) {
	styles, err := ParseStyleTable(map[string]string{TagName: "yellow", TagError: "4"})
	if err != nil {
		t.Fatalf("ParseStyleTable() error = %v", err)
	}
	r := NewRenderer(styles, 0)

	got := r.Render("%s failed", "error", &Instance{SenderName: "Bob"})
	if got != "&4&eBob&4 failed" {
		t.Fatalf("Render() = %q, want %q", got, "&4&eBob&4 failed")
	}
}
