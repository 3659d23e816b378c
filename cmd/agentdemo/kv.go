package main

import (
	"strings"

	"github.com/spf13/cobra"

	"ergo.services/actor/act"
	"ergo.services/actor/gen"
	"ergo.services/actor/store"
)

// kv is the state of the agent persisting the key-value pairs.
type kv struct {
	store   store.Store
	updates int
}

type lookup struct {
	value string
	found bool
	err   error
}

func runKV(cmd *cobra.Command, n gen.Node, backend string, path string, args []string) error {
	s, err := store.Open(backend, path)
	if err != nil {
		return err
	}
	defer s.Close()

	agent, err := act.StartAgent(n, func() (kv, error) {
		return kv{store: s}, nil
	}, act.AgentOptions{})
	if err != nil {
		return err
	}

	for _, arg := range args {
		key, value, isInsert := strings.Cut(arg, "=")
		if isInsert {
			failed, err := act.GetAndUpdate(agent, func(state kv) (error, kv) {
				if err := state.store.Insert([]byte(key), []byte(value)); err != nil {
					return err, state
				}
				state.updates++
				return nil, state
			})
			if err != nil {
				return err
			}
			if failed != nil {
				return failed
			}
			continue
		}

		l, err := act.Get(agent, func(state kv) lookup {
			v, found, err := state.store.Lookup([]byte(key))
			return lookup{value: string(v), found: found, err: err}
		})
		if err != nil {
			return err
		}
		if l.err != nil {
			return l.err
		}
		if l.found == false {
			cmd.Printf("%s: not found\n", key)
			continue
		}
		cmd.Printf("%s: %s\n", key, l.value)
	}

	updates, err := act.Get(agent, func(state kv) int { return state.updates })
	if err != nil {
		return err
	}
	if err := agent.Update(func(state kv) kv {
		if err := state.store.Sync(); err != nil {
			n.Log().Error("unable to sync the store: %s", err)
		}
		return state
	}); err != nil {
		return err
	}
	cmd.Printf("%d keys updated\n", updates)
	return agent.Stop(nil)
}

func newCmdKV(o *options) *cobra.Command {
	var backend, path string
	command := &cobra.Command{
		Use:   "kv [key=value | key]...",
		Short: "Insert (key=value) and look up (key) the keys via the agent backed by the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(n gen.Node) error {
				return runKV(cmd, n, backend, path, args)
			})
		},
	}
	command.Flags().StringVar(&backend, "backend", store.BackendLevelDB, "store backend (leveldb or pebble)")
	command.Flags().StringVar(&path, "path", "agentdemo-data", "store directory")
	return command
}
