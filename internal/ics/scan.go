// Package ics parses line-oriented calendar interchange feeds into
// calendar events, expanding recurrence rules and resolving timezones to
// absolute UTC instants.
package ics

import "strings"

// property is one logical content line: NAME;PARAM=V;...:value.
type property struct {
	Name   string
	Params map[string]string
	Value  string
}

// component is one BEGIN/END block with its properties and nested blocks.
// The scanner produces these before any semantic interpretation happens,
// so recurrence and timezone logic never touch raw lines.
type component struct {
	Name     string
	Props    []property
	Children []component
}

func (c component) propValue(name string) string {
	for _, p := range c.Props {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

func (c component) prop(name string) (property, bool) {
	for _, p := range c.Props {
		if p.Name == name {
			return p, true
		}
	}
	return property{}, false
}

func (c component) allProps(name string) []property {
	out := make([]property, 0, 1)
	for _, p := range c.Props {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// scanComponents runs the line state machine over the feed. Unrecognized
// lines and mismatched END markers are dropped, never fatal.
func scanComponents(feed string) []component {
	roots := make([]component, 0, 1)
	stack := make([]*component, 0, 4)

	for _, line := range unfoldLines(feed) {
		prop, ok := parseContentLine(line)
		if !ok {
			continue
		}
		switch prop.Name {
		case "BEGIN":
			stack = append(stack, &component{Name: strings.ToUpper(prop.Value)})
		case "END":
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if strings.ToUpper(prop.Value) != top.Name {
				// Dangling block; discard it rather than guessing.
				continue
			}
			if len(stack) == 0 {
				roots = append(roots, *top)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, *top)
			}
		default:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			top.Props = append(top.Props, prop)
		}
	}
	return roots
}

// unfoldLines splits the feed on CRLF or LF and joins folded
// continuation lines (those starting with a space or tab) onto their
// predecessor.
func unfoldLines(feed string) []string {
	raw := strings.Split(strings.ReplaceAll(feed, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		out = append(out, line)
	}
	return out
}

// parseContentLine splits a content line into name, parameters, and
// value. The name/value separator is the first colon outside double
// quotes; parameter values may be quoted.
func parseContentLine(line string) (property, bool) {
	sep := -1
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ':':
			if !inQuotes {
				sep = i
			}
		}
		if sep >= 0 {
			break
		}
	}
	if sep <= 0 {
		return property{}, false
	}

	head := line[:sep]
	value := line[sep+1:]
	parts := strings.Split(head, ";")
	name := strings.ToUpper(strings.TrimSpace(parts[0]))
	if name == "" {
		return property{}, false
	}

	var params map[string]string
	for _, part := range parts[1:] {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		if params == nil {
			params = make(map[string]string, len(parts)-1)
		}
		params[strings.ToUpper(strings.TrimSpace(kv[0]))] = strings.Trim(kv[1], `"`)
	}
	return property{Name: name, Params: params, Value: value}, true
}
