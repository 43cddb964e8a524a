// Package rangelist expands compact integer lists such as "32,33,36:40".
package rangelist

import (
	"strconv"
	"strings"

	"github.com/tamzrod/mbpoll/internal/fault"
)

// MaxElements bounds the size of an expanded list.
// It covers the whole 0..65536 reference space.
const MaxElements = 65537

// Expand turns a comma-separated list of integers and first:last ranges into
// an ordered slice. Ranges are expanded ascending whatever the written order.
// name is the quantity being parsed and only appears in error messages.
func Expand(spec, name string) ([]int, error) {
	if spec == "" {
		return nil, nil
	}

	var out []int
	for _, tok := range strings.Split(spec, ",") {
		bounds := strings.Split(tok, ":")

		switch len(bounds) {
		case 1:
			v, err := parseInt(bounds[0], name)
			if err != nil {
				return nil, err
			}
			out = append(out, v)

		case 2:
			first, err := parseInt(bounds[0], name)
			if err != nil {
				return nil, err
			}
			last, err := parseInt(bounds[1], name)
			if err != nil {
				return nil, err
			}
			if first > last {
				first, last = last, first
			}
			if len(out)+(last-first+1) > MaxElements {
				return nil, fault.Config("%s list too long (more than %d values)", name, MaxElements)
			}
			for v := first; v <= last; v++ {
				out = append(out, v)
			}

		default:
			return nil, fault.Syntax("illegal %s delimiter: ':' in %q", name, tok)
		}

		if len(out) > MaxElements {
			return nil, fault.Config("%s list too long (more than %d values)", name, MaxElements)
		}
	}
	return out, nil
}

// Format renders a list in canonical comma-joined form.
// Expand(Format(l)) == l for any list Expand produced.
func Format(list []int) string {
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func parseInt(s, name string) (int, error) {
	if s == "" {
		return 0, fault.Syntax("illegal %s value: missing integer", name)
	}
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fault.Syntax("illegal %s value: %s", name, s)
	}
	return int(v), nil
}
