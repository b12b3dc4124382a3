package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare object",
			text: `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "object with prose around it",
			text: "Sure, here you go:\n{\"a\": 1}\nHope that helps!",
			want: `{"a": 1}`,
		},
		{
			name: "array of objects stays an array",
			text: "Here are the results: [{\"a\": 1}, {\"b\": 2}] done",
			want: `[{"a": 1}, {"b": 2}]`,
		},
		{
			name: "markdown fenced array",
			text: "```json\n[{\"a\": 1}]\n```",
			want: `[{"a": 1}]`,
		},
		{
			name: "no JSON returns input",
			text: "plain refusal",
			want: "plain refusal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.text); got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
