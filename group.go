package tinyioc

import "slices"

// groupIndex maps group name to member names in insertion order.
// Adding the same name twice lists it twice.
type groupIndex map[string][]string

func (g groupIndex) add(group, name string) {
	g[group] = append(g[group], name)
}

func (g groupIndex) members(group string) []string {
	return slices.Clone(g[group])
}

func (g groupIndex) copy() groupIndex {
	cp := make(groupIndex, len(g))
	for group, names := range g {
		cp[group] = slices.Clone(names)
	}

	return cp
}
