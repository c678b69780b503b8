package viewmodel

import (
	"strings"
)

const enumPrefix = "Enum:"

// EnumRegistry maps logical enum names to their members. Pages register the
// enums their lookups reference at startup.
type EnumRegistry struct {
	enums map[string]enumEntry // lower-cased name
}

type enumEntry struct {
	name    string
	members []string
}

func NewEnumRegistry() *EnumRegistry {
	return &EnumRegistry{enums: map[string]enumEntry{}}
}

// Register adds or replaces an enum. Names are matched case-insensitively.
func (r *EnumRegistry) Register(name string, members ...string) {
	r.enums[strings.ToLower(name)] = enumEntry{name: name, members: members}
}

// RegisterEnum registers a string enum from its ordered values.
func RegisterEnum[T ~string](r *EnumRegistry, name string, values []T) {
	members := make([]string, len(values))
	for i, v := range values {
		members[i] = string(v)
	}
	r.Register(name, members...)
}

// Lookup returns the canonical name and members of an enum.
func (r *EnumRegistry) Lookup(name string) (string, []string, bool) {
	if r == nil {
		return "", nil, false
	}
	e, ok := r.enums[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", nil, false
	}
	return e.name, e.members, true
}

// ResolveEnumMember matches value against the members of enum case-insensitively.
func (r *EnumRegistry) ResolveEnumMember(enum, value string) (string, bool) {
	_, members, ok := r.Lookup(enum)
	if !ok {
		return "", false
	}
	for _, m := range members {
		if strings.EqualFold(m, strings.TrimSpace(value)) {
			return m, true
		}
	}
	return "", false
}

func enumLookupName(lookupType string) (string, bool) {
	if len(lookupType) <= len(enumPrefix) || !strings.EqualFold(lookupType[:len(enumPrefix)], enumPrefix) {
		return "", false
	}
	return lookupType[len(enumPrefix):], true
}

func enumKey(enum, member string) string {
	return "EnumType_" + enum + "_" + member
}

// EnumLookupType builds the lookup type string of a registered enum.
func EnumLookupType(name string) string { return enumPrefix + name }

// ResolveEnumText maps the text of an enum field back to its member. The text
// may be the member itself or its localized label.
func (b *Base) ResolveEnumText(enum, text string) (string, bool) {
	if m, ok := b.services.Enums.ResolveEnumMember(enum, text); ok {
		return m, true
	}
	canonical, members, ok := b.services.Enums.Lookup(enum)
	if !ok {
		return "", false
	}
	for _, m := range members {
		if s := b.localize(enumKey(canonical, m)); !s.ResourceNotFound && strings.EqualFold(s.Value, strings.TrimSpace(text)) {
			return m, true
		}
	}
	return "", false
}
