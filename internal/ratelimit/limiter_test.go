package ratelimit

import (
	"errors"
	"testing"

	"golang.org/x/time/rate"
)

func TestNewToolLimiters(t *testing.T) {
	tl := NewToolLimiters()
	for _, tool := range []string{"density_info", "density_cells", "density_summary"} {
		if _, ok := tl[tool]; !ok {
			t.Errorf("no limiter for %s", tool)
		}
	}
}

func TestCheck_Burst(t *testing.T) {
	tl := ToolLimiters{"slow": rate.NewLimiter(0, 3)}

	for i := 0; i < 3; i++ {
		if err := tl.Check("slow"); err != nil {
			t.Fatalf("call %d: Check() error = %v", i, err)
		}
	}
	err := tl.Check("slow")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Check() after burst error = %v, want ErrRateLimited", err)
	}
}

func TestCheck_UnknownToolAllowed(t *testing.T) {
	tl := ToolLimiters{"slow": rate.NewLimiter(0, 0)}
	for i := 0; i < 100; i++ {
		if err := tl.Check("other"); err != nil {
			t.Fatalf("Check(other) error = %v", err)
		}
	}
	if err := tl.Check("slow"); err == nil {
		t.Error("Check(slow) with zero burst expected error")
	}
}

func TestCheck_IndependentTools(t *testing.T) {
	tl := ToolLimiters{
		"a": rate.NewLimiter(0, 1),
		"b": rate.NewLimiter(0, 1),
	}
	if err := tl.Check("a"); err != nil {
		t.Fatalf("Check(a) error = %v", err)
	}
	if err := tl.Check("b"); err != nil {
		t.Errorf("Check(b) after exhausting a: error = %v", err)
	}
	if err := tl.Check("a"); err == nil {
		t.Error("second Check(a) expected error")
	}
}
