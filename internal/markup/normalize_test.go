package markup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "mixed markup literal case",
			in:   "**bold** and _italic_ and `code` and > quoted\n\n\n\nend",
			want: "bold and italic and code and quoted\n\nend",
		},
		{
			name: "fenced code block with language tag",
			in:   "before\n```go\nfunc main() {}\n```\nafter",
			want: "before\nfunc main() {}\nafter",
		},
		{
			name: "asterisk inside code span survives",
			in:   "`a * b` and **bold**",
			want: "a * b and bold",
		},
		{
			name: "underline and strikethrough",
			in:   "__under__ ~~gone~~",
			want: "under gone",
		},
		{
			name: "role mention removed",
			in:   "ping <@&123456789> now",
			want: "ping  now",
		},
		{
			name: "spoiler unwrapped",
			in:   "a ||secret|| b",
			want: "a secret b",
		},
		{
			name: "shortcode emoji removed",
			in:   "launch :rocket: and :thumbs-up+1:",
			want: "launch  and",
		},
		{
			name: "heading markers stripped per line",
			in:   "# Title\n### Subtitle\ntext",
			want: "Title\nSubtitle\ntext",
		},
		{
			name: "quote markers stripped at line start",
			in:   "> quoted line\nplain line",
			want: "quoted line\nplain line",
		},
		{
			name: "zero width and bom removed",
			in:   "a\u200bb\ufeffc",
			want: "abc",
		},
		{
			name: "newline collapse and trailing space trim",
			in:   "line one   \n\n\n\n\nline two\t\n",
			want: "line one\n\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"**bold** and _italic_ and `code` and > quoted\n\n\n\nend",
		"```py\nx = 1\n```\n\n\n\n||spoiler|| :emoji: <@&42>",
		"# Head\n> quote\nplain **strong _nested_**",
		"",
		"no markup at all",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("Normalize not idempotent for %q (-once +twice):\n%s", in, diff)
		}
	}
}
