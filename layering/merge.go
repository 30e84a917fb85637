package layering

import "sort"

// Fill copies entries from src into dst. When overwrite is false only keys
// absent from dst are copied; presence is decided by the key alone, so a key
// holding a zero value in dst is kept. The returned keys are the ones whose
// value in dst actually changed, sorted.
func Fill[K comparable, V any](dst, src map[K]V, overwrite bool, equal func(a, b V) bool, less func(a, b K) bool) []K {
	if dst == nil || len(src) == 0 {
		return nil
	}

	var changed []K
	for key, value := range src {
		existing, ok := dst[key]
		if ok && !overwrite {
			continue
		}
		if ok && equal != nil && equal(existing, value) {
			continue
		}
		dst[key] = value
		changed = append(changed, key)
	}

	if less != nil {
		sort.Slice(changed, func(i, j int) bool { return less(changed[i], changed[j]) })
	}
	return changed
}

// Missing returns the keys of src that dst does not hold.
func Missing[K comparable, V any](dst, src map[K]V) []K {
	var out []K
	for key := range src {
		if _, ok := dst[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}
