package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelcutops/snapcut/steelcut/host"
	pm "github.com/steelcutops/snapcut/steelcut/packagemanager"
	"github.com/steelcutops/snapcut/steelcut/packagemanager/snaptest"
)

type noScope struct{}

func (noScope) HasScope(context.Context) bool { return false }

func run(t *testing.T, fake *snaptest.FakeSnap, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{
		out:         &out,
		hostOptions: []host.HostOption{host.WithCommandManager(fake), host.WithScopeDetector(noScope{})},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestListText(t *testing.T) {
	fake := snaptest.New(map[string]string{"core22": "20240111", "lxd": "5.21"})

	out, err := run(t, fake, "list")
	require.NoError(t, err)
	assert.Equal(t, "localhost:\n  core22\t20240111\n  lxd\t5.21\n", out)
}

func TestVersionJSON(t *testing.T) {
	fake := snaptest.New(map[string]string{"foo": "1", "foobar": "2", "baz": "3"})

	out, err := run(t, fake, "version", "foo*", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"localhost": {"foo": "1", "foobar": "2"}}`, out)

	out, err = run(t, fake, "version", "foo", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"localhost": "1"}`, out)
}

func TestEnsureInstalledTwice(t *testing.T) {
	fake := snaptest.New(nil)
	fake.Store["hello"] = "2.10"

	out, err := run(t, fake, "ensure", "installed", "hello", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"localhost": [{"name": "hello", "result": true, "status": "converged",
		"changes": {"hello": {"old": "", "new": "2.10"}}, "comment": "snap hello installed"}]}`, out)

	out, err = run(t, fake, "ensure", "installed", "hello", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"localhost": [{"name": "hello", "result": true, "status": "already-satisfied",
		"changes": {}, "comment": "snap hello is already installed"}]}`, out)
}

func TestInstallFailureExitsNonZero(t *testing.T) {
	fake := snaptest.New(nil)
	fake.Failures["nope"] = `error: snap "nope" not found`

	out, err := run(t, fake, "install", "nope")
	require.Error(t, err)
	assert.Contains(t, out, `error: problem encountered installing snap nope: error: snap "nope" not found`)
}

func TestInstallRejectsBadConfinement(t *testing.T) {
	fake := snaptest.New(nil)

	_, err := run(t, fake, "install", "foo", "--confinement", "bogus")
	assert.ErrorIs(t, err, pm.ErrInvalidConfinement)
	assert.Empty(t, fake.Calls)
}

func TestApplyFromFile(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "snaps.yaml")
	require.NoError(t, os.WriteFile(statePath, []byte("snaps:\n  - name: code\n  - name: old\n    state: removed\n"), 0o644))
	configPath := filepath.Join(dir, "snapcut.ini")
	require.NoError(t, os.WriteFile(configPath, []byte("[snap]\nconfinement = classic\n"), 0o644))

	fake := snaptest.New(map[string]string{"old": "1"})

	out, err := run(t, fake, "apply", "-f", statePath, "-c", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] code (converged)")
	assert.Contains(t, out, "[ok] old (converged)")

	mutations := fake.Mutations()
	require.Len(t, mutations, 2)
	assert.Contains(t, mutations[0].Args, "--classic")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run(t, snaptest.New(nil), "list", "-o", "xml")
	assert.Error(t, err)
}

func TestHostsFromIni(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.ini")
	require.NoError(t, os.WriteFile(path, []byte("[web]\nh1=web1\nh2=web2\n"), 0o644))

	fake := snaptest.New(map[string]string{"lxd": "5"})
	out, err := run(t, fake, "list", "--ini", path, "--concurrency", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "web1:\n")
	assert.Contains(t, out, "web2:\n")
	assert.NotContains(t, out, "localhost")
}
