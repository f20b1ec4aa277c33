package security

import (
	"strings"
	"testing"
)

func TestHashForLookup_Deterministic(t *testing.T) {
	first := HashForLookup("uk_live_example")
	second := HashForLookup("uk_live_example")
	if first != second {
		t.Fatalf("expected identical digests, got %q and %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if other := HashForLookup("uk_live_other"); other == first {
		t.Fatalf("distinct inputs produced the same digest %q", first)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "long", input: "abcdef1234", want: "******1234"},
		{name: "short", input: "abc", want: "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskSecret(tc.input); got != tc.want {
				t.Fatalf("MaskSecret(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestMaskSecret_PreservesLengthAndTail(t *testing.T) {
	input := "sk-abcdefghij"
	masked := MaskSecret(input)
	if len(masked) != len(input) {
		t.Fatalf("expected masked length %d, got %d", len(input), len(masked))
	}
	if !strings.HasSuffix(masked, input[len(input)-4:]) {
		t.Fatalf("expected masked value to end with %q, got %q", input[len(input)-4:], masked)
	}
	if strings.Contains(masked[:len(masked)-4], input[0:1]) {
		t.Fatalf("expected leading characters masked, got %q", masked)
	}
}

func TestCheckPassword(t *testing.T) {
	hashed, errHash := HashPassword("correct horse")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if !CheckPassword(hashed, "correct horse") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hashed, "wrong horse") {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestGenerateUserKeySecret(t *testing.T) {
	first, errFirst := GenerateUserKeySecret()
	if errFirst != nil {
		t.Fatalf("generate user key: %v", errFirst)
	}
	if !strings.HasPrefix(first, "uk_live_") {
		t.Fatalf("expected uk_live_ prefix, got %q", first)
	}
	second, errSecond := GenerateUserKeySecret()
	if errSecond != nil {
		t.Fatalf("generate user key: %v", errSecond)
	}
	if first == second {
		t.Fatalf("expected distinct secrets, got %q twice", first)
	}
}
