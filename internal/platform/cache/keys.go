package cache

import (
	"strconv"
	"strings"
)

// KeyBuilder assembles deterministic cache keys of the form
// "ns:part:name=value:name=value". Parts are appended in call order.
type KeyBuilder struct {
	parts []string
}

// NewKey starts a key with the given namespace segments.
func NewKey(namespace ...string) *KeyBuilder {
	b := &KeyBuilder{parts: make([]string, 0, len(namespace)+8)}
	for _, ns := range namespace {
		b.parts = append(b.parts, safe(ns))
	}
	return b
}

// Str appends name=value.
func (b *KeyBuilder) Str(name, value string) *KeyBuilder {
	b.parts = append(b.parts, name+"="+safe(value))
	return b
}

// Int appends name=value.
func (b *KeyBuilder) Int(name string, value int64) *KeyBuilder {
	return b.Str(name, strconv.FormatInt(value, 10))
}

// Float appends name=value using the shortest exact representation.
func (b *KeyBuilder) Float(name string, value float64) *KeyBuilder {
	return b.Str(name, strconv.FormatFloat(value, 'g', -1, 64))
}

// Bool appends name=true|false.
func (b *KeyBuilder) Bool(name string, value bool) *KeyBuilder {
	return b.Str(name, strconv.FormatBool(value))
}

// String returns the assembled key.
func (b *KeyBuilder) String() string {
	return strings.Join(b.parts, ":")
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
