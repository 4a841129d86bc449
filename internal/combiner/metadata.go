package combiner

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// stringSet collects distinct strings in first-seen order while merging.
type stringSet []string

// MergeMetadata folds metadata maps in order. Numbers are summed, lists
// concatenated, distinct strings joined with ", " and nested maps merged
// recursively. Any other scalar conflict, such as two booleans or a string
// and a number, becomes the distinct values joined with ", ". When a map or
// list meets a scalar the first value wins.
func MergeMetadata(metas ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range metas {
		mergeInto(out, m)
	}
	return finalize(out).(map[string]any)
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		cur, ok := dst[k]
		if !ok {
			dst[k] = adopt(v)
			continue
		}
		dst[k] = mergeValue(cur, v)
	}
}

// adopt copies v into merge-time form so later merges never alias inputs.
func adopt(v any) any {
	switch t := v.(type) {
	case string:
		return stringSet{t}
	case map[string]any:
		m := make(map[string]any, len(t))
		mergeInto(m, t)
		return m
	case []any:
		return slices.Clone(t)
	case []string:
		return slices.Clone(t)
	}
	return v
}

func mergeValue(cur, v any) any {
	if sum, ok := addNumbers(cur, v); ok {
		return sum
	}
	switch c := cur.(type) {
	case stringSet:
		if s, ok := v.(string); ok {
			if !slices.Contains(c, s) {
				c = append(c, s)
			}
			return c
		}
	case map[string]any:
		if m, ok := v.(map[string]any); ok {
			mergeInto(c, m)
			return c
		}
	case []string:
		switch t := v.(type) {
		case []string:
			return append(c, t...)
		case []any:
			return append(toAny(c), t...)
		}
	case []any:
		switch t := v.(type) {
		case []any:
			return append(c, t...)
		case []string:
			return append(c, toAny(t)...)
		}
	}
	if structured(cur) || structured(v) {
		return cur
	}
	return joinScalars(cur, v)
}

func structured(v any) bool {
	switch v.(type) {
	case map[string]any, []any, []string:
		return true
	}
	return false
}

// joinScalars turns a scalar conflict into a string set of both values.
func joinScalars(cur, v any) any {
	set, ok := cur.(stringSet)
	if !ok {
		if fmt.Sprintf("%T %v", cur, cur) == fmt.Sprintf("%T %v", v, v) {
			return cur
		}
		set = stringSet{fmt.Sprint(cur)}
	}
	if s := fmt.Sprint(v); !slices.Contains(set, s) {
		set = append(set, s)
	}
	return set
}

func finalize(v any) any {
	switch t := v.(type) {
	case stringSet:
		return strings.Join(t, ", ")
	case map[string]any:
		for k, inner := range t {
			t[k] = finalize(inner)
		}
		return t
	}
	return v
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// number classifies v as an integer or a float.
func number(v any) (i int64, f float64, isInt, ok bool) {
	switch t := v.(type) {
	case int:
		return int64(t), float64(t), true, true
	case int32:
		return int64(t), float64(t), true, true
	case int64:
		return t, float64(t), true, true
	case float32:
		return 0, float64(t), false, true
	case float64:
		return 0, t, false, true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, float64(n), true, true
		}
		if x, err := t.Float64(); err == nil {
			return 0, x, false, true
		}
	}
	return 0, 0, false, false
}

func addNumbers(a, b any) (any, bool) {
	ai, af, aInt, ok := number(a)
	if !ok {
		return nil, false
	}
	bi, bf, bInt, ok := number(b)
	if !ok {
		return nil, false
	}
	if aInt && bInt {
		_, aPlain := a.(int)
		_, bPlain := b.(int)
		if aPlain && bPlain {
			return int(ai + bi), true
		}
		return ai + bi, true
	}
	return af + bf, true
}
