package config

import "testing"

func TestParseReactionKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "empty falls back to defaults",
			raw:  "",
			want: DefaultReactionKinds,
		},
		{
			name: "kind and glyph pairs",
			raw:  "up:⬆️,down:⬇️",
			want: map[string]string{"up": "⬆️", "down": "⬇️"},
		},
		{
			name: "kind without glyph keeps its name",
			raw:  "plusone",
			want: map[string]string{"plusone": "plusone"},
		},
		{
			name: "whitespace and empty entries skipped",
			raw:  " up : ⬆️ , , down ",
			want: map[string]string{"up": "⬆️", "down": "down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseReactionKinds(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("kind %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
