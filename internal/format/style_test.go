package format

import "testing"

func TestParseStyleTable(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		want    StyleTable
		wantErr bool
	}{
		{
			name:   "empty keeps defaults",
			values: nil,
			want:   DefaultStyles(),
		},
		{
			name:   "colour names and codes",
			values: map[string]string{TagText: "Gold", TagLocation: "9", TagAdmin: " "},
			want:   StyleTable{Text: '6', Error: 'c', Name: 'f', Admin: 'd', Location: '9'},
		},
		{
			name:    "invalid code",
			values:  map[string]string{TagText: "z"},
			wantErr: true,
		},
		{
			name:    "unknown tag",
			values:  map[string]string{"border": "a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStyleTable(tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStyleTable() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStyleTable() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStripCodes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"&bHello &fBob&b!", "Hello Bob!"},
		{"no codes", "no codes"},
		{"A&zB", "A&zB"},
		{"trailing &", "trailing &"},
		{"&l&nstacked", "stacked"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripCodes(tt.in, '&'); got != tt.want {
				t.Errorf("StripCodes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
