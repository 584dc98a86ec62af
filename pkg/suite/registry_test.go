package suite

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kylerisse/smokecheck/pkg/check"
	"github.com/kylerisse/smokecheck/pkg/harness"
)

func stubFactory(names ...string) Factory {
	return func(env Env) ([]check.Check, error) {
		checks := make([]check.Check, len(names))
		for i, n := range names {
			checks[i] = check.New(n, func(context.Context) (check.Outcome, error) {
				return check.Pass(env.BaseURL), nil
			})
		}
		return checks, nil
	}
}

func failingFactory(Env) ([]check.Check, error) {
	return nil, fmt.Errorf("factory error")
}

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(Descriptor{Name: "stub"}, stubFactory("a", "b")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	checks, err := reg.Create("stub", Env{BaseURL: "http://target"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(checks) != 2 || checks[0].Name() != "a" {
		t.Fatalf("unexpected checks %v", checks)
	}

	out, err := checks[1].Run(context.Background())
	if err != nil || out.Details != "http://target" {
		t.Errorf("factory did not receive env: %+v, %v", out, err)
	}
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(Descriptor{Name: "dup"}, stubFactory()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := reg.Register(Descriptor{Name: "dup"}, stubFactory()); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Descriptor{}, stubFactory()); err == nil {
		t.Error("expected error for empty name")
	}
	if err := reg.Register(Descriptor{Name: "nil"}, nil); err == nil {
		t.Error("expected error for nil factory")
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("nonexistent", Env{}); err == nil {
		t.Error("expected error for unknown suite")
	}
}

func TestRegistry_CreateFactoryError(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Descriptor{Name: "bad"}, failingFactory); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := reg.Create("bad", Env{}); err == nil {
		t.Error("expected error from failing factory")
	}
}

func TestRegistry_DescribeDefaultsThreshold(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Descriptor{Name: "plain"}, stubFactory())
	reg.Register(Descriptor{Name: "strict", Threshold: 1}, stubFactory())

	got, err := reg.Describe("plain")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if got.Threshold != harness.DefaultThreshold {
		t.Errorf("expected default threshold, got %v", got.Threshold)
	}

	got, err = reg.Describe("strict")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if got.Threshold != 1 {
		t.Errorf("expected threshold 1, got %v", got.Threshold)
	}

	if _, err := reg.Describe("missing"); err == nil {
		t.Error("expected error for unknown suite")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	if len(reg.Names()) != 0 {
		t.Errorf("expected no names, got %v", reg.Names())
	}

	reg.Register(Descriptor{Name: "frontend"}, stubFactory())
	reg.Register(Descriptor{Name: "backend"}, stubFactory())
	reg.Register(Descriptor{Name: "comprehensive"}, stubFactory())

	if diff := cmp.Diff([]string{"backend", "comprehensive", "frontend"}, reg.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reg.Register(Descriptor{Name: fmt.Sprintf("suite-%d", n)}, stubFactory("x"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := reg.Create(fmt.Sprintf("suite-%d", n), Env{}); err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(reg.Names()) != 50 {
		t.Errorf("expected 50 suites, got %d", len(reg.Names()))
	}
}
