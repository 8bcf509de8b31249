package pintype

import (
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Built-in primitive type names.
const (
	Str   = "str"
	Int   = "int"
	Float = "float"
	Bool  = "bool"
	Any   = "Any"
)

// unionSeparator splits a declared union type into its options.
const unionSeparator = "|"

// defaultCompatibility is the implicit-conversion table used by the execution
// backend. It is not symmetric as written; NewCatalog closes it.
var defaultCompatibility = map[string][]string{
	Str:   {Int, Float, Any},
	Int:   {Str, Float, Bool, Any},
	Float: {Str, Int, Any},
	Bool:  {Int, Float, Any},
	Any:   {Str, Int, Float, Bool, Any},
}

// Catalog is an immutable compatibility relation between type names.
type Catalog struct {
	compatible map[string]map[string]struct{}
}

// NewCatalog builds a catalog from a forward compatibility table. The stored
// relation is the symmetric and reflexive closure of the table.
func NewCatalog(table map[string][]string) *Catalog {
	c := &Catalog{compatible: make(map[string]map[string]struct{})}
	link := func(a, b string) {
		if c.compatible[a] == nil {
			c.compatible[a] = make(map[string]struct{})
		}
		c.compatible[a][b] = struct{}{}
	}
	for from, targets := range table {
		link(from, from)
		for _, to := range targets {
			link(from, to)
			link(to, from)
			link(to, to)
		}
	}
	return c
}

// Default returns the catalog of the built-in primitive types.
func Default() *Catalog {
	return NewCatalog(defaultCompatibility)
}

// Known reports whether name is one of the catalog's primitive types.
func (c *Catalog) Known(name string) bool {
	_, ok := c.compatible[name]
	return ok
}

// Names returns the catalog's primitive type names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.compatible))
	for name := range c.compatible {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// optionCompatible decides compatibility of two single (non-union) names.
func (c *Catalog) optionCompatible(a, b string) bool {
	if a == b || a == Any || b == Any {
		return true
	}
	_, ok := c.compatible[a][b]
	return ok
}

// Compatible reports whether a value of declared type a may be wired to a pin
// of declared type b. Either side may be a union.
func (c *Catalog) Compatible(a, b string) bool {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return true
	}
	for _, optA := range Options(a) {
		for _, optB := range Options(b) {
			if c.optionCompatible(optA, optB) {
				return true
			}
		}
	}
	return false
}

// Normalize strips whitespace so `int | float` and `int|float` compare equal.
func Normalize(t string) string {
	return strings.Join(strings.Fields(t), "")
}

// Options splits a declared type into its union options.
func Options(t string) []string {
	t = Normalize(t)
	if t == "" {
		return nil
	}
	return strings.Split(t, unionSeparator)
}

// IsAny reports whether t is exactly the polymorphic type.
func IsAny(t string) bool {
	return Normalize(t) == Any
}

// CtyType maps a declared type to the cty type used to tag literal values.
// Unions, Any and names the catalog does not know map to cty.DynamicPseudoType.
func CtyType(t string) cty.Type {
	switch Normalize(t) {
	case Str:
		return cty.String
	case Int, Float:
		return cty.Number
	case Bool:
		return cty.Bool
	default:
		return cty.DynamicPseudoType
	}
}
