package record

import (
	"fmt"
	"log/slog"
)

// Merge patches r with every field explicitly set on other and reports
// whether the effective value of any field changed. Fields unset on other
// are left alone; fields set on other become set on r even when the value
// is unchanged.
//
// With matchIdentity, records of different identity are not merged and
// Merge returns false without error; a type without index fails with
// ErrNoIdentity. Nested records are merged field by field instead of being
// replaced, matching their identity only when their type defines one.
//
// Values are copied with SetUnchecked: other is a record of the same type,
// so its values are already canonical.
func (r *Record) Merge(other *Record, matchIdentity bool) (bool, error) {
	if other == nil {
		return false, nil
	}
	if r.typ != other.typ {
		return false, fmt.Errorf("merge %s into %s: %w", other.typ.name, r.typ.name, ErrTypeMismatch)
	}

	if matchIdentity {
		same, err := r.SameIdentity(other)
		if err != nil {
			return false, err
		}
		if !same {
			mine, _ := r.Identity()
			theirs, _ := other.Identity()
			slog.Debug("merge skipped, identity differs",
				"type", r.typ.name,
				"identity", mine.String(),
				"other", theirs.String(),
			)
			return false, nil
		}
	}

	changed := false
	for _, name := range other.FieldsSet() {
		value := other.values[name]

		if incoming, ok := value.(*Record); ok {
			if current, ok := r.values[name].(*Record); ok && current.typ == incoming.typ {
				nestedChanged, err := current.Merge(incoming, matchIdentity && current.typ.HasIdentity())
				if err != nil {
					return changed, fmt.Errorf("%s.%s: %w", r.typ.name, name, err)
				}
				if nestedChanged {
					changed = true
				}
				continue
			}
		}

		if !valuesEqual(r.Value(name), value) {
			changed = true
		}
		r.SetUnchecked(name, cloneValue(value))
	}

	return changed, nil
}
