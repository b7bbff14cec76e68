package format

import "testing"

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		name      string
		loc       Location
		withWorld bool
		want      string
	}{
		{
			name:      "nether",
			loc:       Location{World: "world_nether", X: 10, Y: 64, Z: -5},
			withWorld: true,
			want:      "(10, 64, -5) in the nether",
		},
		{
			name:      "fractions floor to block",
			loc:       Location{World: "world_nether", X: 10.9, Y: 64.2, Z: -4.1},
			withWorld: true,
			want:      "(10, 64, -5) in the nether",
		},
		{
			name:      "end",
			loc:       Location{World: "world_the_end", X: 0, Y: 70, Z: 0},
			withWorld: true,
			want:      "(0, 70, 0) in the end",
		},
		{
			name:      "overworld",
			loc:       Location{World: "world", X: -1.5, Y: 3, Z: 2},
			withWorld: true,
			want:      "(-2, 3, 2) in the overworld",
		},
		{
			name: "without world",
			loc:  Location{World: "world_nether", X: 1, Y: 2, Z: 3},
			want: "(1, 2, 3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLocation(tt.loc, tt.withWorld); got != tt.want {
				t.Errorf("FormatLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRendererLocation(t *testing.T) {
	r := NewRenderer(DefaultStyles(), DefaultCodePrefix)
	loc := Location{World: "world_nether", X: 10, Y: 64, Z: -5}

	got := r.Location(loc, true)
	want := "&a(10, 64, -5)&b in &athe nether"
	if got != want {
		t.Fatalf("Location() = %q, want %q", got, want)
	}
	if plain := StripCodes(got, '&'); plain != "(10, 64, -5) in the nether" {
		t.Fatalf("StripCodes(Location()) = %q", plain)
	}
}
