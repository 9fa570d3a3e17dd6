package sshmanager

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steelcutops/snapcut/common"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

var ErrNoUsableKeys = errors.New("sshmanager: no usable private keys found")

// Dialer opens SSH connections. Tests replace it to avoid the network.
type Dialer interface {
	Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error)
}

type RealDialer struct{}

func (RealDialer) Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	config.Timeout = timeout
	return ssh.Dial(network, addr, config)
}

type KeyManager interface {
	ReadPrivateKeys(keyPassphrase string) ([]ssh.Signer, error)
}

type FileKeyManager struct {
	// Dir defaults to $HOME/.ssh.
	Dir string
}

type AgentKeyManager struct{}

func (km AgentKeyManager) ReadPrivateKeys(_ string) ([]ssh.Signer, error) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("could not connect to SSH agent: %w", err)
	}
	defer conn.Close()

	signers, err := agent.NewClient(conn).Signers()
	if err != nil {
		return nil, fmt.Errorf("could not get signers from SSH agent: %w", err)
	}

	return signers, nil
}

func (km FileKeyManager) ReadPrivateKeys(keyPassphrase string) ([]ssh.Signer, error) {
	dir := km.Dir
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".ssh")
	}

	files, err := filepath.Glob(filepath.Join(dir, "id_*"))
	if err != nil {
		return nil, err
	}

	var signers []ssh.Signer
	for _, file := range files {
		if strings.HasSuffix(file, ".pub") {
			continue
		}

		keyBytes, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		var signer ssh.Signer
		if keyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(keyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyBytes)
		}
		if err != nil {
			// Wrong passphrase or unsupported format, try the next key.
			continue
		}

		signers = append(signers, signer)
	}

	if len(signers) == 0 {
		return nil, ErrNoUsableKeys
	}

	return signers, nil
}

// ClientConfig builds the SSH client configuration for the given credentials.
// Password auth wins; otherwise key files are used when a passphrase is set
// and the agent when it is not.
func ClientConfig(creds common.Credentials) (*ssh.ClientConfig, error) {
	var authMethod ssh.AuthMethod

	if creds.Password != "" {
		authMethod = ssh.Password(creds.Password)
	} else {
		var keyManager KeyManager
		if creds.KeyPassphrase != "" {
			keyManager = FileKeyManager{}
		} else {
			keyManager = AgentKeyManager{}
		}

		keys, err := keyManager.ReadPrivateKeys(creds.KeyPassphrase)
		if err != nil {
			return nil, err
		}

		authMethod = ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			return keys, nil
		})
	}

	return &ssh.ClientConfig{
		User:            creds.User,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}
