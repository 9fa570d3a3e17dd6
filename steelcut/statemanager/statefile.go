package statemanager

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	pm "github.com/steelcutops/snapcut/steelcut/packagemanager"
)

// State is the desired end state of a snap.
type State string

const (
	StateInstalled State = "installed"
	StateRemoved   State = "removed"
)

var ErrInvalidState = errors.New("statemanager: invalid state, options are installed and removed")

// DesiredState is one entry of a state file.
type DesiredState struct {
	Name        string         `yaml:"name"`
	State       State          `yaml:"state"`
	Confinement pm.Confinement `yaml:"confinement"`
}

type stateFile struct {
	Snaps []DesiredState `yaml:"snaps"`
}

// LoadStateFile reads a YAML state file:
//
//	snaps:
//	  - name: hello-world
//	  - name: code
//	    confinement: classic
//	  - name: old-tool
//	    state: removed
func LoadStateFile(path string, defaultConfinement pm.Confinement) ([]DesiredState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("state file load failed (%s): %w", path, err)
	}
	states, err := ParseStates(data, defaultConfinement)
	if err != nil {
		return nil, fmt.Errorf("state file %s: %w", path, err)
	}
	return states, nil
}

// ParseStates decodes and validates state file content. Missing state means
// installed; missing confinement means defaultConfinement.
func ParseStates(data []byte, defaultConfinement pm.Confinement) ([]DesiredState, error) {
	var f stateFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	for i := range f.Snaps {
		s := &f.Snaps[i]
		if s.State == "" {
			s.State = StateInstalled
		}
		if s.Confinement == "" {
			s.Confinement = defaultConfinement
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("snaps[%d] invalid: %w", i, err)
		}
	}
	return f.Snaps, nil
}

func (s DesiredState) Validate() error {
	if err := pm.ValidatePackageName(s.Name); err != nil {
		return err
	}
	switch s.State {
	case StateInstalled:
		return s.Confinement.Validate()
	case StateRemoved:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidState, s.State)
}
