package packagemanager

import "sort"

// Change is the before/after version of one package. A missing side is "".
type Change struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// ChangeSet holds only the packages whose version differs between two
// inventories.
type ChangeSet map[string]Change

// CompareInventories diffs two snapshots. Values are compared in their joined
// string form so both list and scalar shaped inventories compare alike.
func CompareInventories(before, after Inventory) ChangeSet {
	changes := ChangeSet{}
	seen := make(map[string]struct{}, len(before)+len(after))
	for name := range before {
		seen[name] = struct{}{}
	}
	for name := range after {
		seen[name] = struct{}{}
	}

	for name := range seen {
		oldVersion := before[name].String()
		newVersion := after[name].String()
		if oldVersion != newVersion {
			changes[name] = Change{Old: oldVersion, New: newVersion}
		}
	}
	return changes
}

// Names returns the changed package names in sorted order.
func (c ChangeSet) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
