package ociregistry

import "testing"

func TestSanitizeTag(t *testing.T) {
	cases := map[string]string{
		"llama3":              "llama3",
		"org/llama3":          "org-llama3",
		"registry/org:v1.0.0": "registry-org-v1.0.0",
	}
	for in, want := range cases {
		if got := sanitizeTag(in); got != want {
			t.Errorf("sanitizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}
