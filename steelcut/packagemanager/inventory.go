package packagemanager

import (
	"sort"
	"strings"
)

// VersionValue holds the installed version(s) of one package. An empty value
// means the package is not installed.
type VersionValue []string

func (v VersionValue) String() string {
	return strings.Join(v, ",")
}

func (v VersionValue) IsEmpty() bool {
	return v.String() == ""
}

// Inventory maps package names to their installed versions at one point in
// time.
type Inventory map[string]VersionValue

// Copy returns a deep copy.
func (inv Inventory) Copy() Inventory {
	if inv == nil {
		return nil
	}
	out := make(Inventory, len(inv))
	for name, versions := range inv {
		if versions == nil {
			out[name] = nil
			continue
		}
		out[name] = append(VersionValue(nil), versions...)
	}
	return out
}

// Stringify collapses every multi-version value into a single joined entry.
func (inv Inventory) Stringify() Inventory {
	out := make(Inventory, len(inv))
	for name, versions := range inv {
		if versions.IsEmpty() {
			out[name] = nil
			continue
		}
		out[name] = VersionValue{versions.String()}
	}
	return out
}

// Names returns the package names in sorted order.
func (inv Inventory) Names() []string {
	names := make([]string, 0, len(inv))
	for name := range inv {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (inv Inventory) add(name, version string) {
	inv[name] = append(inv[name], version)
}

func (inv Inventory) sortVersions() {
	for _, versions := range inv {
		sort.Strings(versions)
	}
}

// ListOptions shapes ListInstalled. Removed and PurgeDesired ask for package
// states snap does not track; they always produce an empty inventory.
type ListOptions struct {
	VersionsAsList bool
	Removed        bool
	PurgeDesired   bool
}

func (o ListOptions) shape(inv Inventory) Inventory {
	if o.VersionsAsList {
		return inv
	}
	return inv.Stringify()
}

// row is one parsed line of snap's tabular output.
type row struct {
	name    string
	version string
}

// parseTable splits snap's human readable table into name/version rows. The
// header and blank lines are skipped; lines without at least two columns are
// handed to onBad and skipped.
func parseTable(out string, onBad func(line string)) []row {
	var rows []row
	for i, line := range strings.Split(out, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			if onBad != nil {
				onBad(line)
			}
			continue
		}
		rows = append(rows, row{name: fields[0], version: fields[1]})
	}
	return rows
}
