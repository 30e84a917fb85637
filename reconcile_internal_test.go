package params

import (
	"reflect"
	"testing"
)

func TestReconcileReportsFilledKeys(t *testing.T) {
	current := MustSet(map[string]any{"a": 9, UniqueIDKey: "existingid00000"})
	defaults := MustSet(map[string]any{"a": 1, "c": 3, "b": 2})

	result := reconcile(current, defaults, true, nil)
	if !reflect.DeepEqual(result.Filled, []string{"b", "c"}) {
		t.Fatalf("unexpected filled keys %v", result.Filled)
	}
	if !reflect.DeepEqual(result.Changed, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected changed keys %v", result.Changed)
	}
	if result.IdentifierAssigned || result.Unchanged {
		t.Fatalf("unexpected result %+v", result)
	}
}
