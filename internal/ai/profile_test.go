package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSummarizeProfile(t *testing.T) {
	gen := &fakeGenerator{response: "  AI startup in NRW seeking €100k for ML tooling.  "}

	got, err := SummarizeProfile(context.Background(), gen, "We build ML tooling ...")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AI startup in NRW seeking €100k for ML tooling." {
		t.Errorf("summary should be trimmed, got %q", got)
	}
}

func TestSummarizeProfileClipsLongInput(t *testing.T) {
	gen := &fakeGenerator{response: "summary"}
	long := strings.Repeat("x", maxProfileChars*2)

	if _, err := SummarizeProfile(context.Background(), gen, long); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.prompts) != 1 || len(gen.prompts[0]) > maxProfileChars+500 {
		t.Errorf("profile text should be clipped before prompting, prompt was %d bytes", len(gen.prompts[0]))
	}
}

func TestSummarizeProfileErrors(t *testing.T) {
	if _, err := SummarizeProfile(context.Background(), &fakeGenerator{response: "x"}, "   "); err == nil {
		t.Error("empty profile text must error")
	}
	if _, err := SummarizeProfile(context.Background(), &fakeGenerator{err: errors.New("down")}, "text"); err == nil {
		t.Error("generator failure must surface")
	}
	if _, err := SummarizeProfile(context.Background(), &fakeGenerator{response: "   "}, "text"); err == nil {
		t.Error("blank summary must error")
	}
}
