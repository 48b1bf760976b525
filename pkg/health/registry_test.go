package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistryAggregatesConcurrently(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterFunc("alpha", func(ctx context.Context) CheckResult {
		return CheckResult{Name: "alpha", Status: StatusHealthy}
	})
	registry.RegisterFunc("beta", func(ctx context.Context) CheckResult {
		return CheckResult{Name: "beta", Status: StatusHealthy}
	})

	result := registry.Check(context.Background())
	if !result.IsHealthy() {
		t.Fatalf("expected healthy aggregate, got %#v", result)
	}
	if len(result.Checks) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Checks))
	}
}

func TestRegistryOneFailureMakesUnhealthy(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterFunc("ok", func(ctx context.Context) CheckResult {
		return CheckResult{Name: "ok", Status: StatusHealthy}
	})
	registry.RegisterFunc("down", func(ctx context.Context) CheckResult {
		return CheckResult{Name: "down", Status: StatusUnhealthy, Error: "connection refused"}
	})

	result := registry.Check(context.Background())
	if result.IsHealthy() {
		t.Fatal("expected unhealthy aggregate")
	}
}

func TestRegistryEmptyIsHealthy(t *testing.T) {
	if result := NewRegistry().Check(context.Background()); !result.IsHealthy() {
		t.Fatalf("empty registry should be healthy, got %#v", result)
	}
}

type slowCheckable struct {
	delay time.Duration
	err   error
}

func (s slowCheckable) HealthCheck(ctx context.Context) error {
	select {
	case <-time.After(s.delay):
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestAdapterCheckerTimeout(t *testing.T) {
	checker := NewAdapterChecker("slow", slowCheckable{delay: time.Second}, 10*time.Millisecond)
	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("expected timeout to be unhealthy, got %#v", result)
	}
}

func TestAdapterCheckerReportsError(t *testing.T) {
	checker := NewAdapterChecker("db", slowCheckable{err: errors.New("no reachable servers")}, time.Second)
	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy || result.Error == "" {
		t.Fatalf("expected error to surface, got %#v", result)
	}

	healthy := NewAdapterChecker("db", slowCheckable{}, time.Second).Check(context.Background())
	if healthy.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %#v", healthy)
	}
}
