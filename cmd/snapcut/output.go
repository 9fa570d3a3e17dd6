package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	pm "github.com/steelcutops/snapcut/steelcut/packagemanager"
	"github.com/steelcutops/snapcut/steelcut/statemanager"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// versionOutput flattens a VersionResult into plain values for rendering.
func versionOutput(res pm.VersionResult, asList bool) interface{} {
	if v, ok := res.Single(); ok {
		if asList {
			return []string(v)
		}
		return v.String()
	}

	many, _ := res.Many()
	out := make(map[string]interface{}, len(many))
	for name, v := range many {
		if asList {
			out[name] = []string(v)
		} else {
			out[name] = v.String()
		}
	}
	return out
}

func render(w io.Writer, format string, results map[string]interface{}) error {
	if format == "json" {
		b, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	hostnames := make([]string, 0, len(results))
	for name := range results {
		hostnames = append(hostnames, name)
	}
	sort.Strings(hostnames)

	for _, hostname := range hostnames {
		fmt.Fprintf(w, "%s:\n", hostname)
		renderText(w, results[hostname])
	}
	return nil
}

func renderText(w io.Writer, result interface{}) {
	switch r := result.(type) {
	case pm.Inventory:
		for _, name := range r.Names() {
			fmt.Fprintf(w, "  %s\t%s\n", name, r[name].String())
		}
	case mutation:
		renderChanges(w, r.Changes)
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
	case []statemanager.StateReport:
		for _, report := range r {
			status := "ok"
			if !report.Result {
				status = "FAILED"
			}
			fmt.Fprintf(w, "  [%s] %s (%s): %s\n", status, report.Name, report.Status, report.Comment)
			renderChanges(w, report.Changes)
		}
	case string:
		fmt.Fprintf(w, "  %s\n", r)
	case []string:
		fmt.Fprintf(w, "  %s\n", strings.Join(r, ", "))
	case map[string]interface{}:
		names := make([]string, 0, len(r))
		for name := range r {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s\t%v\n", name, r[name])
		}
	default:
		fmt.Fprintf(w, "  %v\n", r)
	}
}

func renderChanges(w io.Writer, changes pm.ChangeSet) {
	for _, name := range changes.Names() {
		c := changes[name]
		fmt.Fprintf(w, "    %s: %q -> %q\n", name, c.Old, c.New)
	}
}
