package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DomainIdentity prefixes identity hashes. The version suffix allows the
// encoding to change without colliding with old hashes.
const DomainIdentity = "exportable/identity/v1"

// Key is the identity of a record: the effective values of its index
// fields. The zero Key is returned together with ErrNoIdentity.
type Key struct {
	parts []any
}

// NewKey builds a key from canonical values (string, int64, float64, bool,
// time.Time). Plain ints are widened to int64.
func NewKey(parts ...any) Key {
	k := Key{parts: make([]any, len(parts))}
	for i, p := range parts {
		if n, ok := p.(int); ok {
			p = int64(n)
		}
		k.parts[i] = p
	}
	return k
}

// Parts returns a copy of the key values.
func (k Key) Parts() []any {
	return append([]any(nil), k.parts...)
}

// IsZero reports whether the key has no parts.
func (k Key) IsZero() bool {
	return len(k.parts) == 0
}

// String renders the key. Composite keys join their parts with ":".
func (k Key) String() string {
	switch len(k.parts) {
	case 0:
		return ""
	case 1:
		return formatScalar(k.parts[0])
	}
	parts := make([]string, len(k.parts))
	for i, p := range k.parts {
		parts[i] = formatScalar(p)
	}
	return strings.Join(parts, ":")
}

// Compare orders keys part by part.
func (k Key) Compare(o Key) int {
	n := min(len(k.parts), len(o.parts))
	for i := 0; i < n; i++ {
		if c := compareValues(keyPart(k.parts[i]), keyPart(o.parts[i])); c != 0 {
			return c
		}
	}
	return cmpInt(len(k.parts), len(o.parts))
}

// Equal reports whether both keys hold the same values.
func (k Key) Equal(o Key) bool {
	if len(k.parts) != len(o.parts) {
		return false
	}
	for i := range k.parts {
		if !valuesEqual(keyPart(k.parts[i]), keyPart(o.parts[i])) {
			return false
		}
	}
	return true
}

// keyPart normalizes string parts to NFC, matching HashKey.
func keyPart(v any) any {
	if s, ok := v.(string); ok {
		return norm.NFC.String(s)
	}
	return v
}

// Identity returns the record's key.
func (r *Record) Identity() (Key, error) {
	if len(r.typ.index) == 0 {
		return Key{}, fmt.Errorf("%s: %w", r.typ.name, ErrNoIdentity)
	}
	k := Key{parts: make([]any, len(r.typ.index))}
	for i, name := range r.typ.index {
		k.parts[i] = r.Value(name)
	}
	return k, nil
}

// SameIdentity compares the identities of r and other. Only index fields
// take part.
func (r *Record) SameIdentity(other *Record) (bool, error) {
	if r.typ != other.typ {
		return false, nil
	}
	a, err := r.Identity()
	if err != nil {
		return false, err
	}
	b, err := other.Identity()
	if err != nil {
		return false, err
	}
	return a.Equal(b), nil
}

// Hash returns a stable hex SHA-256 of the record type and identity.
// Format: SHA256(domain + 0x00 + canonical JSON).
func (r *Record) Hash() (string, error) {
	k, err := r.Identity()
	if err != nil {
		return "", err
	}
	return HashKey(r.typ.name, k)
}

// HashKey hashes a key of the named type.
func HashKey(typeName string, k Key) (string, error) {
	parts := make([]any, len(k.parts))
	for i, p := range k.parts {
		parts[i] = canonicalPart(p)
	}
	// Keys marshal in sorted order: "index" < "type".
	data, err := marshalCompact(map[string]any{
		"index": parts,
		"type":  norm.NFC.String(typeName),
	})
	if err != nil {
		return "", fmt.Errorf("hash %s identity: %w", typeName, err)
	}

	h := sha256.New()
	h.Write([]byte(DomainIdentity))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalPart maps key parts that Key.Equal treats as equal to the same
// value: times to their UTC instant and -0 to 0.
func canonicalPart(v any) any {
	switch s := v.(type) {
	case string:
		return norm.NFC.String(s)
	case float64:
		if s == 0 {
			return float64(0)
		}
		return s
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano)
	case nil, int64, bool:
		return v
	}
	return norm.NFC.String(formatScalar(v))
}
