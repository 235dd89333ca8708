package main

import (
	"errors"
	"testing"
)

func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare host", input: "example.com", want: "https://example.com/"},
		{name: "keeps http", input: "http://example.com/about", want: "http://example.com/about"},
		{name: "lowercases host", input: "https://WWW.Example.COM", want: "https://www.example.com/"},
		{name: "drops fragment", input: "https://example.com/page#top", want: "https://example.com/page"},
		{name: "keeps query", input: "https://example.com/?lang=en", want: "https://example.com/?lang=en"},
		{name: "trims space", input: "  example.com/blog  ", want: "https://example.com/blog"},
		{name: "empty", input: "", wantErr: true},
		{name: "ftp scheme", input: "ftp://example.com/", wantErr: true},
		{name: "file scheme", input: "file:///tmp/index.html", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := normalizeTarget(tt.input)
			if tt.wantErr {
				if !errors.Is(err, errInvalidTarget) {
					t.Errorf("expected errInvalidTarget, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeTarget(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
