package node

import (
	"context"
	"runtime"
	"time"

	"github.com/pingcap/errors"
	"go.uber.org/atomic"

	"ergo.services/actor/gen"
)

// errAborted is returned by mailbox pop if the abort channel was closed
// (the process we wait for the response from has terminated).
var errAborted = errors.New("aborted")

type process struct {
	node   *node
	pid    gen.PID
	parent gen.PID

	// used for the Uptime only
	creation int64

	state    atomic.Int32
	trapExit atomic.Bool
	reason   atomic.Error

	mailbox *mailbox
	log     *log

	messagesIn  atomic.Uint64
	messagesOut atomic.Uint64

	// canceled on termination
	ctx    context.Context
	cancel context.CancelFunc
	// closed once the exit has been propagated and the process unregistered
	done chan struct{}

	// made by the node for the requests, has no goroutine
	transient bool
}

// gen.Process implementation

func (p *process) Node() gen.Node {
	return p.node
}

func (p *process) PID() gen.PID {
	return p.pid
}

func (p *process) Parent() gen.PID {
	return p.parent
}

func (p *process) Log() gen.Log {
	return p.log
}

func (p *process) State() gen.ProcessState {
	return gen.ProcessState(p.state.Load())
}

func (p *process) Context() context.Context {
	return p.ctx
}

func (p *process) Spawn(fn gen.ProcessFunc, options gen.ProcessOptions) (gen.PID, error) {
	if p.isAlive() == false {
		return gen.PID{}, gen.ErrProcessTerminated
	}
	return p.node.spawn(p.pid, fn, options, false)
}

func (p *process) SpawnLink(fn gen.ProcessFunc, options gen.ProcessOptions) (gen.PID, error) {
	if p.isAlive() == false {
		return gen.PID{}, gen.ErrProcessTerminated
	}
	return p.node.spawn(p.pid, fn, options, true)
}

func (p *process) Send(to gen.PID, message any) error {
	if p.isAlive() == false {
		return gen.ErrProcessTerminated
	}
	if err := p.node.routeSend(to, message); err != nil {
		return err
	}
	p.messagesOut.Inc()
	return nil
}

func (p *process) SendExit(to gen.PID, reason error) error {
	if p.isAlive() == false {
		return gen.ErrProcessTerminated
	}
	if to == p.pid {
		p.log.Warning("sending exit-signal to itself is not allowed")
		return gen.ErrNotAllowed
	}
	if err := p.node.routeSendExit(p.pid, to, reason); err != nil {
		return err
	}
	p.messagesOut.Inc()
	return nil
}

func (p *process) SendResponse(to gen.PID, ref gen.Ref, response any) error {
	return p.Send(to, gen.MessageResponse{From: p.pid, Ref: ref, Response: response})
}

func (p *process) SendResponseError(to gen.PID, ref gen.Ref, err error) error {
	return p.Send(to, gen.MessageResponse{From: p.pid, Ref: ref, Err: err})
}

func (p *process) Receive() (any, error) {
	return p.receive(nil, 0)
}

func (p *process) ReceiveWithTimeout(timeout time.Duration) (any, error) {
	return p.receive(nil, timeout)
}

func (p *process) ReceiveMatch(match gen.MatchFunc, timeout time.Duration) (any, error) {
	if match == nil {
		return nil, gen.ErrIncorrect
	}
	return p.receive(match, timeout)
}

func (p *process) Call(to gen.PID, request any) (any, error) {
	return p.CallWithTimeout(to, request, p.node.callTimeout)
}

func (p *process) CallWithTimeout(to gen.PID, request any, timeout time.Duration) (any, error) {
	if to == p.pid {
		return nil, gen.ErrNotAllowed
	}

	running := int32(gen.ProcessStateRunning)
	waiting := int32(gen.ProcessStateWaitResponse)
	if p.state.CompareAndSwap(running, waiting) == false {
		if p.isAlive() == false {
			return nil, gen.ErrProcessTerminated
		}
		return nil, gen.ErrNotAllowed
	}

	response, err := p.call(to, request, timeout)

	if p.state.CompareAndSwap(waiting, running) == false {
		// has been killed while waiting
		return nil, gen.ErrProcessTerminated
	}
	return response, err
}

func (p *process) Link(target gen.PID) error {
	if p.isAlive() == false {
		return gen.ErrProcessTerminated
	}
	return p.node.links.link(p.pid, target, p.node.isProcessAlive)
}

func (p *process) Unlink(target gen.PID) error {
	p.node.links.unlink(p.pid, target)
	return nil
}

func (p *process) IsLinked(target gen.PID) bool {
	return p.node.links.isLinked(p.pid, target)
}

func (p *process) Links() []gen.PID {
	return p.node.links.linksOf(p.pid)
}

func (p *process) SetTrapExit(trap bool) bool {
	return p.trapExit.Swap(trap)
}

func (p *process) TrapExit() bool {
	return p.trapExit.Load()
}

func (p *process) Info() (gen.ProcessInfo, error) {
	if p.isAlive() == false {
		return gen.ProcessInfo{}, gen.ErrProcessTerminated
	}
	return gen.ProcessInfo{
		PID:             p.pid,
		Parent:          p.parent,
		State:           p.State(),
		TrapExit:        p.trapExit.Load(),
		Links:           p.node.links.linksOf(p.pid),
		MessageQueueLen: p.mailbox.len(),
		MessagesIn:      p.messagesIn.Load(),
		MessagesOut:     p.messagesOut.Load(),
		Uptime:          p.node.clock.Now().Unix() - p.creation,
		LogLevel:        p.log.Level(),
	}, nil
}

// internal

// start returns false if the process has been terminated (by the exit of the
// linked process) before the start.
func (p *process) start(fn gen.ProcessFunc) bool {
	p.node.wg.Add(1)
	initState := int32(gen.ProcessStateInit)
	if p.state.CompareAndSwap(initState, int32(gen.ProcessStateRunning)) == false {
		p.node.wg.Done()
		return false
	}
	go p.run(fn)
	return true
}

func (p *process) run(fn gen.ProcessFunc) {
	defer p.node.wg.Done()
	reason := p.execute(fn)
	p.node.terminate(p, reason, true)
}

func (p *process) execute(fn gen.ProcessFunc) (reason error) {
	defer func() {
		if rcv := recover(); rcv != nil {
			pc, fn, line, _ := runtime.Caller(2)
			p.log.Panic("process terminated - %#v at %s[%s:%d]",
				rcv, runtime.FuncForPC(pc).Name(), fn, line)
			reason = gen.AbnormalExit{Cause: rcv}
		}
	}()
	return gen.ExitReason(fn(p))
}

// markTerminated moves the process into the terminal state. Returns false if
// the process has been terminated before. The process terminated by an exit
// signal while its goroutine is running becomes a zombee; the goroutine gets
// gen.ErrProcessTerminated on the next Receive (or Call) and sets the final
// state on return (self is true).
func (p *process) markTerminated(reason error, self bool) bool {
	for {
		old := p.state.Load()
		switch gen.ProcessState(old) {
		case gen.ProcessStateTerminated:
			return false
		case gen.ProcessStateZombee:
			if self {
				p.state.CompareAndSwap(old, int32(gen.ProcessStateTerminated))
			}
			return false
		}

		next := gen.ProcessStateTerminated
		if self == false && gen.ProcessState(old) != gen.ProcessStateInit {
			next = gen.ProcessStateZombee
		}
		if p.state.CompareAndSwap(old, int32(next)) {
			break
		}
	}

	p.reason.Store(reason)
	p.mailbox.close()
	p.cancel()
	return true
}

func (p *process) isAlive() bool {
	state := p.state.Load()
	alive := int32(gen.ProcessStateInit) |
		int32(gen.ProcessStateRunning) |
		int32(gen.ProcessStateWaitResponse)
	return (state & alive) == state
}

func (p *process) receive(match gen.MatchFunc, timeout time.Duration) (any, error) {
	timer, stop := p.node.timer(timeout)
	defer stop()

	for {
		message, err := p.mailbox.pop(match, timer, nil)
		if err != nil {
			return nil, err
		}
		if r, ok := message.(gen.MessageResponse); ok && match == nil {
			// we got a late response to the request that has been timed out
			// earlier. just drop it
			p.log.Trace("got late response on request with ref %s. dropped", r.Ref)
			continue
		}
		return message, nil
	}
}

func (p *process) call(to gen.PID, request any, timeout time.Duration) (any, error) {
	target := p.node.processByPid(to)
	if target == nil || target.isAlive() == false {
		return nil, gen.ErrProcessTerminated
	}
	if timeout <= 0 {
		timeout = p.node.callTimeout
	}

	ref := p.node.MakeRef()
	message := gen.MessageCall{From: p.pid, Ref: ref, Request: request}
	if target.mailbox.push(message) == false {
		p.node.metrics.dropped.Inc()
		return nil, gen.ErrProcessTerminated
	}
	target.messagesIn.Inc()
	p.messagesOut.Inc()
	p.node.metrics.sent.Inc()

	timer, stop := p.node.timer(timeout)
	defer stop()

	match := func(m any) bool {
		r, ok := m.(gen.MessageResponse)
		return ok && r.Ref == ref
	}
	// the response (if any) is pushed before the target is unregistered, so
	// watching target.done never loses it
	m, err := p.mailbox.pop(match, timer, target.done)
	switch err {
	case nil:
	case errAborted:
		p.log.Trace("request with ref %s is aborted: %s has terminated", ref, to)
		return nil, gen.ErrProcessTerminated
	case gen.ErrTimeout:
		p.log.Trace("request with ref %s is timed out", ref)
		return nil, gen.ErrTimeout
	default:
		return nil, err
	}

	response := m.(gen.MessageResponse)
	return response.Response, response.Err
}
