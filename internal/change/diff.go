// Package change implements the change request engine: typed creation,
// proposed solutions, the review transition, and the diff helpers that
// produce the audit trail for every mutation.
package change

import "fmt"

// ListItem pairs a collection element with the identity and display value
// the differ compares it by. Key is a stable identity independent of
// display formatting; an empty Key marks a freshly created element with
// no persisted identity yet, which never matches anything old.
type ListItem[T any] struct {
	Element T
	Key     string
	Display string
}

// ListDiff partitions the union of an old and new collection into
// disjoint sets, with one human-readable detail line per entry.
type ListDiff[T any] struct {
	Removed []T
	Added   []T
	Edited  []T
	Details []string
}

// Empty reports whether the diff contains no changes.
func (d ListDiff[T]) Empty() bool {
	return len(d.Details) == 0
}

// DiffLists compares two collections by key. Old elements whose key is
// absent from the new collection are removed; new elements with no key
// or an unknown key are added; matched keys with differing display
// values are edited; everything else is unchanged and emits nothing.
// Details are ordered removals first (old-slice order), then additions
// and edits (new-slice order). Field names the collection in the detail
// lines, e.g. "Goal" or "Blocked By".
func DiffLists[T any](field string, oldList, newList []ListItem[T]) ListDiff[T] {
	oldByKey := make(map[string]string, len(oldList))
	for _, it := range oldList {
		if it.Key != "" {
			oldByKey[it.Key] = it.Display
		}
	}
	newByKey := make(map[string]string, len(newList))
	for _, it := range newList {
		if it.Key != "" {
			newByKey[it.Key] = it.Display
		}
	}

	var d ListDiff[T]
	for _, it := range oldList {
		if _, ok := newByKey[it.Key]; it.Key == "" || !ok {
			d.Removed = append(d.Removed, it.Element)
			d.Details = append(d.Details, fmt.Sprintf("Removed %s %q", field, it.Display))
		}
	}
	for _, it := range newList {
		oldDisplay, ok := oldByKey[it.Key]
		switch {
		case it.Key == "" || !ok:
			d.Added = append(d.Added, it.Element)
			d.Details = append(d.Details, fmt.Sprintf("Added new %s %q", field, it.Display))
		case oldDisplay != it.Display:
			d.Edited = append(d.Edited, it.Element)
			d.Details = append(d.Details, fmt.Sprintf("Changed %s from %q to %q", field, oldDisplay, it.Display))
		}
	}
	return d
}
