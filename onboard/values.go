package onboard

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// AsInt converts a loosely typed config or wire value to an int. Floats are
// truncated, numeric strings are parsed and booleans count as 0/1. Values
// beyond the range of int saturate.
func AsInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return math.MaxInt, true
		}
		return int(n), true
	case float64:
		switch {
		case math.IsNaN(n), math.IsInf(n, 0):
			return 0, false
		case n >= math.MaxInt:
			return math.MaxInt, true
		case n <= math.MinInt:
			return math.MinInt, true
		}
		return int(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return AsInt(f)
		}
		return 0, false
	case string:
		// Atoi saturates on ErrRange
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// AsFloat converts a loosely typed value to a float64.
func AsFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsOrientation accepts only a numeric +1 or -1. Strings never qualify.
func AsOrientation(v interface{}) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	f, ok := AsFloat(v)
	if !ok || (f != 1 && f != -1) {
		return 0, false
	}
	return f, true
}
