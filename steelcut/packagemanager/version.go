package packagemanager

// VersionResult is what Version returns: a single value when exactly one
// concrete name was asked for, a mapping otherwise.
type VersionResult struct {
	single   bool
	value    VersionValue
	versions map[string]VersionValue
}

func singleVersion(v VersionValue) VersionResult {
	return VersionResult{single: true, value: v}
}

func manyVersions(m map[string]VersionValue) VersionResult {
	return VersionResult{versions: m}
}

func (r VersionResult) Single() (VersionValue, bool) {
	return r.value, r.single
}

func (r VersionResult) Many() (map[string]VersionValue, bool) {
	return r.versions, !r.single
}

// Installed reports whether anything in the result is installed.
func (r VersionResult) Installed() bool {
	if r.single {
		return !r.value.IsEmpty()
	}
	for _, v := range r.versions {
		if !v.IsEmpty() {
			return true
		}
	}
	return false
}
