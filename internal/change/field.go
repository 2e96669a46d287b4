package change

import "fmt"

// FieldChange compares two scalar values and returns the audit detail
// line for the change, or ok=false if the values are equal.
func FieldChange(field, oldVal, newVal string) (detail string, ok bool) {
	if oldVal == newVal {
		return "", false
	}
	return fmt.Sprintf("Changed %s from %q to %q", field, oldVal, newVal), true
}

// FieldChangePtr is FieldChange for nullable scalars. A value appearing
// yields an Added line, a value disappearing yields a Deleted line, and
// both present but unequal yields a Changed line.
func FieldChangePtr(field string, oldVal, newVal *string) (detail string, ok bool) {
	switch {
	case oldVal == nil && newVal == nil:
		return "", false
	case oldVal == nil:
		return fmt.Sprintf("Added %s %q", field, *newVal), true
	case newVal == nil:
		return fmt.Sprintf("Deleted %s %q", field, *oldVal), true
	case *oldVal == *newVal:
		return "", false
	default:
		return fmt.Sprintf("Changed %s from %q to %q", field, *oldVal, *newVal), true
	}
}
