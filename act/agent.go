package act

import (
	"time"

	"github.com/pingcap/errors"

	"ergo.services/actor/gen"
)

// AgentOptions
type AgentOptions struct {
	// TrapExit makes the agent trap exits. The agent stops with the same
	// reason on the exit signal from its parent process and ignores the
	// others.
	TrapExit bool
	// Timeout for the requests made with Get, GetAndUpdate, Update and Stop.
	// Default is the node call timeout.
	Timeout time.Duration
	// LogLevel of the agent process.
	LogLevel gen.LogLevel
}

// Agent is a process keeping the state of type S. The state can be read and
// modified with the functions sent to the agent. The functions are applied
// one by one in the order the agent receives them, so they never run
// concurrently and always see the state left by the previous one.
//
// Agent value is a handle. It is safe to be used from any goroutine.
type Agent[S any] struct {
	pid     gen.PID
	caller  gen.Caller
	timeout time.Duration
}

// commands handled by the agent loop
type agentCommand interface {
	isAgentCommand()
}

type castCommand[S any] struct {
	fun func(S) S
}

type getCommand[S any] struct {
	fun func(S) any
}

type getAndUpdateCommand[S any] struct {
	fun func(S) (any, S)
}

type updateCommand[S any] struct {
	fun func(S) S
}

type stopCommand struct {
	reason error
}

func (castCommand[S]) isAgentCommand()         {}
func (getCommand[S]) isAgentCommand()          {}
func (getAndUpdateCommand[S]) isAgentCommand() {}
func (updateCommand[S]) isAgentCommand()       {}
func (stopCommand) isAgentCommand()            {}

type agentReplyOK struct{}

// StartAgent starts the agent process. The init function is invoked within
// the agent process and its result becomes the initial state. If init
// returns an error (or panics) the agent terminates and StartAgent returns
// this error.
func StartAgent[S any](node gen.Node, initial func() (S, error), options AgentOptions) (*Agent[S], error) {
	return startAgent(node, initial, options, node.Spawn)
}

// StartAgentLink starts the agent process linked to the given one. The
// returned handle makes requests via the node, use Via(process) to make them
// on behalf of the process.
func StartAgentLink[S any](process gen.Process, initial func() (S, error), options AgentOptions) (*Agent[S], error) {
	return startAgent(process.Node(), initial, options, process.SpawnLink)
}

func startAgent[S any](caller gen.Caller, initial func() (S, error), options AgentOptions,
	spawn func(gen.ProcessFunc, gen.ProcessOptions) (gen.PID, error)) (*Agent[S], error) {

	if initial == nil {
		return nil, gen.ErrIncorrect
	}

	ack := make(chan error, 1)
	fn := func(p gen.Process) error {
		state, err := initState(initial)
		ack <- err
		if err != nil {
			// nothing has been served yet, no reason to bother the links
			return gen.TerminateReasonNormal
		}
		return agentLoop(p, state, options.TrapExit)
	}

	pid, err := spawn(fn, gen.ProcessOptions{TrapExit: options.TrapExit, LogLevel: options.LogLevel})
	if err != nil {
		return nil, err
	}
	if err := <-ack; err != nil {
		return nil, errors.Annotate(err, "agent init failed")
	}

	return &Agent[S]{
		pid:     pid,
		caller:  caller,
		timeout: options.Timeout,
	}, nil
}

func initState[S any](initial func() (S, error)) (state S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return initial()
}

func agentLoop[S any](p gen.Process, state S, trap bool) error {
	p.Log().Debug("agent started")
	for {
		message, err := p.Receive()
		if err != nil {
			return err
		}

		switch m := message.(type) {
		case castCommand[S]:
			state = m.fun(state)

		case gen.MessageCall:
			var reply any
			switch c := m.Request.(type) {
			case getCommand[S]:
				reply = c.fun(state)
			case getAndUpdateCommand[S]:
				reply, state = c.fun(state)
			case updateCommand[S]:
				state = c.fun(state)
				reply = agentReplyOK{}
			case stopCommand:
				p.SendResponse(m.From, m.Ref, agentReplyOK{})
				p.Log().Debug("agent stopped by %s with reason %s", m.From, c.reason)
				return c.reason
			default:
				p.Log().Warning("unsupported request from %s: %#v", m.From, m.Request)
				p.SendResponseError(m.From, m.Ref, gen.ErrUnsupported)
				continue
			}
			if err := p.SendResponse(m.From, m.Ref, reply); err != nil {
				return err
			}

		case gen.MessageExit:
			if trap && m.PID == p.Parent() {
				return m.Reason
			}
			p.Log().Debug("ignored exit signal from %s: %s", m.PID, m.Reason)

		default:
			p.Log().Warning("unsupported message: %#v", message)
		}
	}
}

// PID returns the process identifier of the agent.
func (a *Agent[S]) PID() gen.PID {
	return a.pid
}

// Via returns the handle making requests on behalf of the given process
// (or node).
func (a *Agent[S]) Via(caller gen.Caller) *Agent[S] {
	c := *a
	c.caller = caller
	return &c
}

// WithTimeout returns the handle with the given request timeout.
func (a *Agent[S]) WithTimeout(timeout time.Duration) *Agent[S] {
	c := *a
	c.timeout = timeout
	return &c
}

// Cast updates the state asynchronously. It returns immediately and never
// reports the agent failures. Casting to the terminated agent is a no-op.
func (a *Agent[S]) Cast(fun func(S) S) error {
	if fun == nil {
		return gen.ErrIncorrect
	}
	return a.caller.Send(a.pid, castCommand[S]{fun: fun})
}

// Update updates the state and waits for the agent to apply the function.
func (a *Agent[S]) Update(fun func(S) S) error {
	if fun == nil {
		return gen.ErrIncorrect
	}
	_, err := a.call(updateCommand[S]{fun: fun})
	return err
}

// Stop stops the agent with the given reason (gen.TerminateReasonNormal if
// nil) and waits for the agent to acknowledge it.
func (a *Agent[S]) Stop(reason error) error {
	if reason == nil {
		reason = gen.TerminateReasonNormal
	}
	_, err := a.call(stopCommand{reason: reason})
	return err
}

func (a *Agent[S]) call(command agentCommand) (any, error) {
	return a.caller.CallWithTimeout(a.pid, command, a.timeout)
}

// Get returns the value computed by fun over the current state. The state
// is not changed.
func Get[S any, R any](a *Agent[S], fun func(S) R) (R, error) {
	var empty R
	if fun == nil {
		return empty, gen.ErrIncorrect
	}
	command := getCommand[S]{
		fun: func(state S) any { return fun(state) },
	}
	reply, err := a.call(command)
	if err != nil {
		return empty, err
	}
	r, _ := reply.(R)
	return r, nil
}

// GetAndUpdate applies fun to the state. The first value returned by fun is
// the reply, the second one becomes the new state. Both happen atomically
// with respect to the other commands.
func GetAndUpdate[S any, R any](a *Agent[S], fun func(S) (R, S)) (R, error) {
	var empty R
	if fun == nil {
		return empty, gen.ErrIncorrect
	}
	command := getAndUpdateCommand[S]{
		fun: func(state S) (any, S) {
			r, s := fun(state)
			return r, s
		},
	}
	reply, err := a.call(command)
	if err != nil {
		return empty, err
	}
	r, _ := reply.(R)
	return r, nil
}
