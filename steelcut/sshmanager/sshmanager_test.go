package sshmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/steelcutops/snapcut/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfigPassword(t *testing.T) {
	cfg, err := ClientConfig(common.Credentials{User: "ops", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ops", cfg.User)
	assert.Len(t, cfg.Auth, 1)
}

func TestFileKeyManagerNoKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_ed25519.pub"), []byte("ssh-ed25519 AAAA"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_rsa"), []byte("not a key"), 0o600))

	_, err := FileKeyManager{Dir: dir}.ReadPrivateKeys("")
	assert.ErrorIs(t, err, ErrNoUsableKeys)
}

func TestAgentKeyManagerWithoutSocket(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	_, err := AgentKeyManager{}.ReadPrivateKeys("")
	assert.Error(t, err)
}
