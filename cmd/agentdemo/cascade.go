package main

import (
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"

	"ergo.services/actor/gen"
)

func isExit(message any) bool {
	_, ok := message.(gen.MessageExit)
	return ok
}

func waitForever(p gen.Process) error {
	for {
		if _, err := p.Receive(); err != nil {
			return err
		}
	}
}

// runCascade spawns A, then C linked to A. Once started, A spawns linked B
// which fails. The failure of B terminates A and then C. The trapping
// observer linked to A and C prints their exit reasons.
func runCascade(cmd *cobra.Command, n gen.Node, cause string) error {
	a, err := n.Spawn(func(p gen.Process) error {
		if _, err := p.Receive(); err != nil {
			return err
		}
		b, err := p.SpawnLink(func(p gen.Process) error {
			return errors.New(cause)
		}, gen.ProcessOptions{})
		if err != nil {
			return err
		}
		p.Log().Info("spawned %s", b)
		return waitForever(p)
	}, gen.ProcessOptions{})
	if err != nil {
		return err
	}

	c, err := n.SpawnLink(a, waitForever, gen.ProcessOptions{})
	if err != nil {
		return err
	}

	ready := make(chan error, 1)
	exits := make(chan gen.MessageExit, 2)
	_, err = n.Spawn(func(p gen.Process) error {
		for _, pid := range []gen.PID{a, c} {
			if err := p.Link(pid); err != nil {
				ready <- err
				return err
			}
		}
		ready <- nil
		for i := 0; i < 2; i++ {
			message, err := p.ReceiveMatch(isExit, 0)
			if err != nil {
				return err
			}
			exits <- message.(gen.MessageExit)
		}
		return nil
	}, gen.ProcessOptions{TrapExit: true})
	if err != nil {
		return err
	}
	if err := <-ready; err != nil {
		return err
	}

	if err := n.Send(a, "start"); err != nil {
		return err
	}
	names := map[gen.PID]string{a: "A", c: "C"}
	for i := 0; i < 2; i++ {
		exit := <-exits
		cmd.Printf("%s %s terminated: %s\n", names[exit.PID], exit.PID, exit.Reason)
	}
	return nil
}

func newCmdCascade(o *options) *cobra.Command {
	var cause string
	command := &cobra.Command{
		Use:   "cascade",
		Short: "Show how the failure propagates over the links",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(n gen.Node) error {
				return runCascade(cmd, n, cause)
			})
		},
	}
	command.Flags().StringVar(&cause, "cause", "boom", "the failure of the process B")
	return command
}
