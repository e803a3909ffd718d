package relation

import "fmt"

// Kind is the cardinality and ownership shape of a relation.
type Kind int

const (
	BelongsTo Kind = iota + 1
	HasOne
	HasMany
	BelongsToMany
)

var kindNames = map[Kind]string{
	BelongsTo:     "belongs_to",
	HasOne:        "has_one",
	HasMany:       "has_many",
	BelongsToMany: "belongs_to_many",
}

// String returns the snake_case name used in configuration and metrics.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Single reports whether the relation resolves to at most one entity.
func (k Kind) Single() bool {
	return k == BelongsTo || k == HasOne
}

// ParseKind parses a snake_case kind name.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown relation kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown relation kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so kinds can be read
// from YAML and JSON configuration.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
