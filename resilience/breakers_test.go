package resilience

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestBreakerSet_PerOperation(t *testing.T) {
	set := NewBreakerSet(CircuitBreakerConfig{MinRequests: 1, OpenTimeout: time.Hour}, ScopeOperation)

	ids := set.For("getSimilarIds")
	detail := set.For("getDetail")

	if ids == detail {
		t.Fatal("For() returned the same breaker for different operations")
	}
	if set.For("getDetail") != detail {
		t.Error("For() returned a new breaker for a known operation")
	}
	if detail.Name() != "getDetail" {
		t.Errorf("Name() = %q, want getDetail", detail.Name())
	}

	_ = detail.Execute(context.Background(), fail)

	if detail.State() != StateOpen {
		t.Errorf("getDetail state = %v, want open", detail.State())
	}
	if ids.State() != StateClosed {
		t.Errorf("getSimilarIds state = %v, want closed", ids.State())
	}
}

func TestBreakerSet_Shared(t *testing.T) {
	set := NewBreakerSet(CircuitBreakerConfig{MinRequests: 1, OpenTimeout: time.Hour}, ScopeShared)

	_ = set.For("getDetail").Execute(context.Background(), fail)

	if got := set.For("getSimilarIds").State(); got != StateOpen {
		t.Errorf("getSimilarIds state = %v, want open in shared scope", got)
	}
	if got := set.Names(); !reflect.DeepEqual(got, []string{SharedScopeName}) {
		t.Errorf("Names() = %v, want [%s]", got, SharedScopeName)
	}
}

func TestBreakerSet_TemplateCallbackSeesName(t *testing.T) {
	var mu sync.Mutex
	var names []string

	set := NewBreakerSet(CircuitBreakerConfig{
		MinRequests: 1,
		OpenTimeout: time.Hour,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			names = append(names, name)
			mu.Unlock()
		},
	}, ScopeOperation)

	_ = set.For("getDetail").Execute(context.Background(), fail)

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(names, []string{"getDetail"}) {
		t.Errorf("callback names = %v, want [getDetail]", names)
	}
}

func TestBreakerSet_Snapshot(t *testing.T) {
	set := NewBreakerSet(CircuitBreakerConfig{MinRequests: 5}, ScopeOperation)

	_ = set.For("getDetail").Execute(context.Background(), fail)
	_ = set.For("getSimilarIds").Execute(context.Background(), succeed)

	snap := set.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() has %d entries, want 2", len(snap))
	}
	if snap["getDetail"].Failures != 1 {
		t.Errorf("getDetail failures = %d, want 1", snap["getDetail"].Failures)
	}
	if snap["getSimilarIds"].Successes != 1 {
		t.Errorf("getSimilarIds successes = %d, want 1", snap["getSimilarIds"].Successes)
	}
	if got := set.Names(); !reflect.DeepEqual(got, []string{"getDetail", "getSimilarIds"}) {
		t.Errorf("Names() = %v, want sorted operation names", got)
	}
}

func TestParseBreakerScope(t *testing.T) {
	tests := []struct {
		in   string
		want BreakerScope
	}{
		{"operation", ScopeOperation},
		{"shared", ScopeShared},
		{"", ScopeOperation},
		{"bogus", ScopeOperation},
	}

	for _, tt := range tests {
		if got := ParseBreakerScope(tt.in); got != tt.want {
			t.Errorf("ParseBreakerScope(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
