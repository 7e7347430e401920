package mindmap

import (
	"testing"

	"mindmap_backend/core"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, doc any)
	}{
		{
			name: "array",
			raw:  `["A", "B"]`,
			check: func(t *testing.T, doc any) {
				list, ok := doc.([]any)
				if !ok || len(list) != 2 {
					t.Errorf("doc = %#v", doc)
				}
			},
		},
		{
			name: "integers stay integers",
			raw:  `{"id": 3}`,
			check: func(t *testing.T, doc any) {
				obj := doc.(map[string]any)
				if _, ok := obj["id"].(int64); !ok {
					t.Errorf("id is %T, want int64", obj["id"])
				}
			},
		},
		{
			name: "json code fence",
			raw:  "```json\n[\"A\"]\n```",
			check: func(t *testing.T, doc any) {
				if list, ok := doc.([]any); !ok || list[0] != "A" {
					t.Errorf("doc = %#v", doc)
				}
			},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  {\"topic\": \"X\"}  \n",
			check: func(t *testing.T, doc any) {
				if _, ok := doc.(map[string]any); !ok {
					t.Errorf("doc = %#v", doc)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseResponse(tt.raw)
			if err != nil {
				t.Fatalf("ParseResponse() error: %v", err)
			}
			tt.check(t, doc)
		})
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Here are the topics: Intro, Basics",
		`{"topic": "X",`,
		`["A", "B"`,
	}

	for _, raw := range inputs {
		_, err := ParseResponse(raw)
		if !core.IsKind(err, core.KindMalformedResponse) {
			t.Errorf("ParseResponse(%q) err = %v, want MalformedResponse", raw, err)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[1]", "[1]"},
		{"```\n[1]\n```", "[1]"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```json\n[1]\n```  ", "[1]"},
		{"```", "```"},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
