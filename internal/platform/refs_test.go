package platform

import "testing"

func TestParseMessageLink(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  MessageRef
		ok    bool
	}{
		{"full link", "https://chat.example.com/channels/123/456/789", MessageRef{123, 456, 789}, true},
		{"bare triple", "123/456/789", MessageRef{}, false},
		{"leading slash triple", "/123/456/789", MessageRef{123, 456, 789}, true},
		{"embedded in text", "please look at /1/2/3 thanks", MessageRef{1, 2, 3}, true},
		{"two groups only", "/123/456", MessageRef{}, false},
		{"non numeric", "/abc/def/ghi", MessageRef{}, false},
		{"empty", "", MessageRef{}, false},
		{"plain text", "hello world", MessageRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMessageLink(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseMessageLink(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseMessageLink(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMessageRefIsZero(t *testing.T) {
	if !(MessageRef{}).IsZero() {
		t.Error("zero MessageRef should report IsZero")
	}
	if (MessageRef{Guild: 1}).IsZero() {
		t.Error("non-zero MessageRef should not report IsZero")
	}
}

func TestMessageRefString(t *testing.T) {
	ref := MessageRef{Guild: 123, Channel: 456, Message: 789}
	if got := ref.String(); got != "123/456/789" {
		t.Errorf("String() = %q, want %q", got, "123/456/789")
	}
}
