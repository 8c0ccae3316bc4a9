package normalize

import "strings"

// Field is a canonical column name.
type Field string

// Rule binds a canonical field to the first header its predicate accepts.
// Predicates receive the label lowercased with whitespace collapsed.
type Rule struct {
	Field Field
	Match func(label string) bool
}

// Columns maps canonical fields to header positions.
type Columns map[Field]int

// Index returns the column position of f, or -1 when unbound.
func (c Columns) Index(f Field) int {
	if idx, ok := c[f]; ok {
		return idx
	}
	return -1
}

// Has reports whether f is bound.
func (c Columns) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

// Resolve evaluates rules in order against headers. A field binds at most
// once, to the first unclaimed header matched by the first rule naming it,
// and a header is never claimed by two fields.
func Resolve(headers []string, rules []Rule) Columns {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = matchKey(h)
	}

	cols := make(Columns)
	claimed := make([]bool, len(headers))
	for _, rule := range rules {
		if cols.Has(rule.Field) {
			continue
		}
		for i, key := range keys {
			if claimed[i] || key == "" {
				continue
			}
			if rule.Match(key) {
				cols[rule.Field] = i
				claimed[i] = true
				break
			}
		}
	}
	return cols
}

// Equals matches labels equal to any of values.
func Equals(values ...string) func(string) bool {
	want := make(map[string]struct{}, len(values))
	for _, v := range values {
		want[matchKey(v)] = struct{}{}
	}
	return func(label string) bool {
		_, ok := want[label]
		return ok
	}
}

// Contains matches labels containing any of parts.
func Contains(parts ...string) func(string) bool {
	return func(label string) bool {
		for _, p := range parts {
			if strings.Contains(label, matchKey(p)) {
				return true
			}
		}
		return false
	}
}

// ContainsAll matches labels containing every one of parts.
func ContainsAll(parts ...string) func(string) bool {
	return func(label string) bool {
		for _, p := range parts {
			if !strings.Contains(label, matchKey(p)) {
				return false
			}
		}
		return true
	}
}

// Any combines predicates with a logical or.
func Any(preds ...func(string) bool) func(string) bool {
	return func(label string) bool {
		for _, p := range preds {
			if p(label) {
				return true
			}
		}
		return false
	}
}

// Except narrows pred to labels containing none of parts.
func Except(pred func(string) bool, parts ...string) func(string) bool {
	excluded := Contains(parts...)
	return func(label string) bool {
		return pred(label) && !excluded(label)
	}
}
