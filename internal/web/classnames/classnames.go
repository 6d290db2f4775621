// Package classnames builds CSS class strings for templates.
//
// Merge follows the clsx rules for collecting class names and then resolves
// conflicting Tailwind utility classes so that the last one wins:
//
//	Merge("px-2 py-1", map[string]bool{"bg-red-500": hasError}, "px-4")
//	// "py-1 bg-red-500 px-4" when hasError is true
package classnames

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// Merge joins the truthy inputs into one class string without Tailwind conflicts.
//
// Accepted inputs: string, []string, []any, map[string]bool (keys with true values,
// sorted), integers and floats (non-zero values) and fmt.Stringer. nil, false, true
// and empty strings are ignored.
func Merge(inputs ...any) string {
	var parts []string
	for _, in := range inputs {
		parts = collect(parts, in)
	}

	if len(parts) == 0 {
		return ""
	}

	return twmerge.Merge(parts...)
}

// Join is Merge without conflict resolution, for class lists that are not Tailwind utilities.
func Join(inputs ...any) string {
	var parts []string
	for _, in := range inputs {
		parts = collect(parts, in)
	}

	return strings.Join(parts, " ")
}

// ErrOddArguments is returned by Cond for an incomplete class/condition pair.
var ErrOddArguments = errors.New("classnames: Cond needs class/condition pairs")

// Cond builds the map form of Merge inputs from class/condition pairs, for use in
// templates: {{ cn "btn" (dict "btn-active" .Active) }}.
func Cond(pairs ...any) (map[string]bool, error) {
	if len(pairs)%2 != 0 {
		return nil, ErrOddArguments
	}

	m := make(map[string]bool, len(pairs)/2)

	for i := 0; i < len(pairs); i += 2 {
		class, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("classnames: class %v is not a string", pairs[i]) //nolint:err113
		}

		on, _ := pairs[i+1].(bool)
		m[class] = m[class] || on
	}

	return m, nil
}

func collect(parts []string, in any) []string {
	switch v := in.(type) {
	case nil, bool:
		return parts
	case string:
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	case []string:
		for _, s := range v {
			parts = collect(parts, s)
		}
	case []any:
		for _, item := range v {
			parts = collect(parts, item)
		}
	case map[string]bool:
		keys := make([]string, 0, len(v))

		for k, on := range v {
			if on {
				keys = append(keys, k)
			}
		}

		sort.Strings(keys)

		for _, k := range keys {
			parts = collect(parts, k)
		}
	case int:
		if v != 0 {
			parts = append(parts, strconv.Itoa(v))
		}
	case int64:
		if v != 0 {
			parts = append(parts, strconv.FormatInt(v, 10))
		}
	case float64:
		if v != 0 {
			parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
		}
	case fmt.Stringer:
		parts = collect(parts, v.String())
	}

	return parts
}
