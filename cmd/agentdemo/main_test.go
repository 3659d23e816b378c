package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "disabled"))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestCounter(t *testing.T) {
	out := execute(t, "counter")
	require.Regexp(t, `counter <.+>: 3\n`, out)
	require.Contains(t, out, "withdrawn 10, left 0")

	out = execute(t, "counter", "--casts", "5", "--metrics")
	require.Regexp(t, `counter <.+>: 5\n`, out)
	require.Contains(t, out, "actor_node_processes_spawned_total{node=")
}

func TestCascade(t *testing.T) {
	out := execute(t, "cascade", "--cause", "kaboom")
	require.Regexp(t, `A <.+> terminated: abnormal: kaboom\n`, out)
	require.Regexp(t, `C <.+> terminated: abnormal: kaboom\n`, out)
}

func TestKV(t *testing.T) {
	for _, backend := range []string{"leveldb", "pebble"} {
		backend := backend
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data")
			out := execute(t, "kv", "--backend", backend, "--path", path, "a=1", "b=2", "a", "c")
			require.Contains(t, out, "a: 1\n")
			require.Contains(t, out, "c: not found\n")
			require.Contains(t, out, "2 keys updated\n")

			// persisted
			out = execute(t, "kv", "--backend", backend, "--path", path, "b")
			require.Contains(t, out, "b: 2\n")
		})
	}
}

func TestKVUnknownBackend(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"kv", "--backend", "bolt", "--path", t.TempDir(), "a"})
	require.Error(t, cmd.Execute())
}
