package packagemanager

import "fmt"

// Confinement is the sandboxing level requested when installing a snap.
type Confinement string

const (
	Strict    Confinement = "jailmode"
	Classic   Confinement = "classic"
	Developer Confinement = "devmode"
)

// DefaultConfinement is used when none is configured.
const DefaultConfinement = Strict

func ParseConfinement(s string) (Confinement, error) {
	c := Confinement(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Confinement) Validate() error {
	switch c {
	case Strict, Classic, Developer:
		return nil
	}
	return &ValidationError{Field: "confinement", Value: string(c), Err: ErrInvalidConfinement}
}

// Flag is the snap install flag selecting this confinement.
func (c Confinement) Flag() string {
	return fmt.Sprintf("--%s", c)
}
