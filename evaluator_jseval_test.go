//go:build js_eval

package params_test

import (
	"context"
	"fmt"
	"testing"

	params "github.com/goliatone/go-params"
)

func newJSStore(t *testing.T) *params.Store {
	t.Helper()
	evaluator, err := params.NewEvaluator(params.EngineJS, nil, params.BuiltinFunctions())
	if err != nil {
		t.Fatalf("js: %v", err)
	}
	named, ok := evaluator.(interface{ Engine() string })
	if !ok || named.Engine() != params.EngineJS {
		t.Fatalf("expected js engine, got %T", evaluator)
	}
	return newEvalStore(t, params.WithEvaluator(evaluator))
}

func TestEvaluateWithJS(t *testing.T) {
	store := newJSStore(t)
	ctx := context.Background()

	cases := map[string]string{
		`volume * 3`:                        "9",
		`theme === "dark" && volume > 2`:    "true",
		`params.volume + 1`:                 "4",
		`params["beta-flag"]`:               "true",
		`display.contrast * 10`:             "20",
		`uniqueID`:                          "fixedidentifier",
		`coalesce(metadata.missing, theme)`: "dark",
		`truthy(theme)`:                     "true",
		`call("coalesce", null, volume)`:    "3",
		`param("missing", 7) + volume`:      "10",
	}
	for expr, want := range cases {
		resp, err := store.Evaluate(ctx, expr)
		if err != nil {
			t.Fatalf("%s: %v", expr, err)
		}
		if got := fmt.Sprint(resp.Value); got != want {
			t.Fatalf("%s: expected %s, got %s", expr, want, got)
		}
	}
}

func TestEvaluateWithJSSeesPuts(t *testing.T) {
	store := newJSStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, "volume", params.Int(2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	resp, err := store.Evaluate(ctx, `volume * 3`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := fmt.Sprint(resp.Value); got != "6" {
		t.Fatalf("expected 6, got %s", got)
	}
}

func TestEvaluateWithJSReportsSyntaxErrors(t *testing.T) {
	store := newJSStore(t)
	if _, err := store.Evaluate(context.Background(), `volume >`); err == nil {
		t.Fatalf("expected compile error")
	}
}
