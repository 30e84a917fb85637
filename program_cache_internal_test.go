package params

import (
	"errors"
	"testing"
)

type mapCache map[string]any

func (c mapCache) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

func (c mapCache) Set(key string, value any) {
	c[key] = value
}

func TestCachedProgramCompilesOnce(t *testing.T) {
	cache := mapCache{}
	compiles := 0
	compile := func() (string, error) {
		compiles++
		return "program", nil
	}

	for i := 0; i < 3; i++ {
		got, err := cachedProgram(cache, "k", compile)
		if err != nil || got != "program" {
			t.Fatalf("unexpected result %q %v", got, err)
		}
	}
	if compiles != 1 {
		t.Fatalf("expected one compile, got %d", compiles)
	}
}

func TestCachedProgramIgnoresForeignEntries(t *testing.T) {
	cache := mapCache{"k": 42}
	got, err := cachedProgram(cache, "k", func() (string, error) { return "fresh", nil })
	if err != nil || got != "fresh" {
		t.Fatalf("expected recompile, got %q %v", got, err)
	}
	if cache["k"] != "fresh" {
		t.Fatalf("expected cache to be replaced, got %v", cache["k"])
	}
}

func TestCachedProgramDoesNotStoreFailures(t *testing.T) {
	cache := mapCache{}
	boom := errors.New("boom")
	if _, err := cachedProgram(cache, "k", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if len(cache) != 0 {
		t.Fatalf("expected nothing cached, got %v", cache)
	}
	if _, err := cachedProgram[string](nil, "k", func() (string, error) { return "x", nil }); err != nil {
		t.Fatalf("nil cache: %v", err)
	}
}

func TestProgramKey(t *testing.T) {
	if got := programKey(EngineExpr, "a + 1"); got != "expr:a + 1" {
		t.Fatalf("unexpected expr key %q", got)
	}
	if got := programKey(EngineCEL, "a + 1", "a", "b"); got != "cel:a,b:a + 1" {
		t.Fatalf("unexpected cel key %q", got)
	}
	if got := programKey(EngineCEL, "1"); got != "cel::1" {
		t.Fatalf("unexpected empty cel key %q", got)
	}
}
