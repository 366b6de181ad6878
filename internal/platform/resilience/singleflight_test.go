package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var executions atomic.Int32

	const callers = 16
	gate := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			val, err, _ := g.Do("athlete-4711", func() (any, error) {
				executions.Add(1)
				time.Sleep(50 * time.Millisecond)
				return "page", nil
			})
			if err != nil || val != "page" {
				t.Errorf("unexpected result: %v %v", val, err)
			}
		}()
	}

	close(gate)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("executions: got %d, want 1", got)
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var executions atomic.Int32

	for _, key := range []string{"a", "b", "a"} {
		if _, err, _ := g.Do(key, func() (any, error) {
			executions.Add(1)
			return nil, nil
		}); err != nil {
			t.Fatalf("do %s: %v", key, err)
		}
	}

	// Sequential calls never share, even for a repeated key.
	if got := executions.Load(); got != 3 {
		t.Fatalf("executions: got %d, want 3", got)
	}
}
