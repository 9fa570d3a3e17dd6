package common

// Credentials holds the login material used to reach a host and to elevate
// commands on it.
type Credentials struct {
	User          string
	Password      string
	KeyPassphrase string
	SudoPassword  string
}
