package main

import (
	"github.com/spf13/cobra"

	"ergo.services/actor/act"
	"ergo.services/actor/gen"
)

type account struct {
	total int
}

func runCounter(cmd *cobra.Command, n gen.Node, casts int) error {
	counter, err := act.StartAgent(n, func() (int, error) { return 0, nil }, act.AgentOptions{})
	if err != nil {
		return err
	}
	defer counter.Stop(nil)

	for i := 0; i < casts; i++ {
		if err := counter.Cast(func(c int) int { return c + 1 }); err != nil {
			return err
		}
	}
	count, err := act.Get(counter, func(c int) int { return c })
	if err != nil {
		return err
	}
	cmd.Printf("counter %s: %d\n", counter.PID(), count)

	acc, err := act.StartAgent(n, func() (account, error) {
		return account{total: 10}, nil
	}, act.AgentOptions{})
	if err != nil {
		return err
	}
	defer acc.Stop(nil)

	total, err := act.GetAndUpdate(acc, func(a account) (int, account) {
		return a.total, account{total: 0}
	})
	if err != nil {
		return err
	}
	left, err := act.Get(acc, func(a account) int { return a.total })
	if err != nil {
		return err
	}
	cmd.Printf("account %s: withdrawn %d, left %d\n", acc.PID(), total, left)
	return nil
}

func newCmdCounter(o *options) *cobra.Command {
	var casts int
	command := &cobra.Command{
		Use:   "counter",
		Short: "Increment the counter agent and drain the account agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(n gen.Node) error {
				return runCounter(cmd, n, casts)
			})
		},
	}
	command.Flags().IntVar(&casts, "casts", 3, "number of the increments")
	return command
}
