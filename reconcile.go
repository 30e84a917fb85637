package params

import (
	"sort"

	"github.com/goliatone/go-params/layering"
)

// ReconcileResult describes what a reconciliation pass changed.
type ReconcileResult struct {
	// Unchanged is true when the set ended equal to its prior state.
	Unchanged bool
	// IdentifierAssigned is true when UniqueIDKey was generated.
	IdentifierAssigned bool
	// Changed lists the default keys that were filled or overwritten, sorted.
	Changed []string
	// Filled is the subset of Changed that was absent before, sorted.
	Filled []string
}

// Reconcile merges defaults into current. With force every default key is
// overwritten; otherwise only absent keys are filled (a key holding null
// counts as present). The identifier is ensured first so it is part of the
// compared state. It reports whether current was left unchanged.
func Reconcile(current, defaults Set, force bool, gen IDGenerator) bool {
	return reconcile(current, defaults, force, gen).Unchanged
}

func reconcile(current, defaults Set, force bool, gen IDGenerator) ReconcileResult {
	assigned := EnsureIdentifier(current, gen)
	fill := defaults.Clone()
	// The identifier is owned by EnsureIdentifier, never by the defaults table.
	delete(fill, UniqueIDKey)
	filled := layering.Missing(current, fill)
	sort.Strings(filled)
	changed := layering.Fill(current, fill, force, Value.Equal, func(a, b string) bool { return a < b })
	return ReconcileResult{
		Unchanged:          !assigned && len(changed) == 0,
		IdentifierAssigned: assigned,
		Changed:            changed,
		Filled:             filled,
	}
}
