package standards

import "sort"

var registered = map[string]Check{}

// Register adds a check to the validator. Called from the rules package
// init functions.
func Register(c Check) {
	if c == nil {
		return
	}
	registered[c.Name()] = c
}

// All returns the registered checks in stable name order.
func All() []Check {
	out := make([]Check, 0, len(registered))
	for _, c := range registered {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
