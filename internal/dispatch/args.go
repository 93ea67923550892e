package dispatch

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nidhogg/forecast-facts/internal/facts"
)

// Args holds the named parameters of a request. Keys may be camelCase or
// snake_case.
type Args map[string]interface{}

func (a Args) lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := a[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// only rejects any key not listed in allowed.
func (a Args) only(allowed ...string) error {
	for k := range a {
		ok := false
		for _, al := range allowed {
			if k == al {
				ok = true
				break
			}
		}
		if !ok {
			return facts.InvalidArgument("unknown argument %q", k)
		}
	}
	return nil
}

// Year decodes the "year" argument. JSON numbers must be integral; strings
// must hold a decimal integer, and either must be a 4-digit year. Absent, "",
// "any" and "*" mean facts.AnyYear unless required is set.
func (a Args) Year(required bool) (int, error) {
	v, ok := a.lookup("year")
	if !ok || v == nil {
		if required {
			return 0, facts.InvalidArgument("year is required")
		}
		return facts.AnyYear, nil
	}

	var year int
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.Abs(t) > math.MaxInt32 {
			return 0, facts.InvalidArgument("year %v is not an integer", t)
		}
		year = int(t)
	case int:
		year = t
	case int64:
		year = int(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, facts.InvalidArgument("year %q is not an integer", t.String())
		}
		year = int(n)
	case string:
		s := strings.TrimSpace(t)
		switch strings.ToLower(s) {
		case "", "any", "*":
			if required {
				return 0, facts.InvalidArgument("year is required")
			}
			return facts.AnyYear, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, facts.InvalidArgument("year %q is not an integer", t)
		}
		year = n
	default:
		return 0, facts.InvalidArgument("year has unsupported type %T", v)
	}

	if !facts.ValidYear(year) {
		return 0, facts.InvalidArgument("year %d is not a 4-digit year", year)
	}
	return year, nil
}

// String decodes an optional string argument under any of keys.
func (a Args) String(keys ...string) (string, error) {
	v, ok := a.lookup(keys...)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", facts.InvalidArgument("%s must be a string, got %T", keys[0], v)
	}
	return s, nil
}
