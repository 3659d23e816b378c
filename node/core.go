package node

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ergo.services/actor/gen"
)

func (n *node) newPID() gen.PID {
	return gen.PID{
		Node:     n.name,
		ID:       n.nextID.Inc(),
		Creation: n.creation,
	}
}

// MakeRef returns unique reference within this node
func (n *node) MakeRef() gen.Ref {
	return gen.Ref{
		Node:     n.name,
		Creation: n.creation,
		ID:       n.nextRef.Inc(),
	}
}

func (n *node) newProcess(parent gen.PID, options gen.ProcessOptions) *process {
	pid := n.newPID()
	ctx, cancel := context.WithCancel(n.ctx)

	p := &process{
		node:     n,
		pid:      pid,
		parent:   parent,
		mailbox:  newMailbox(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		creation: n.clock.Now().Unix(),
	}
	p.state.Store(int32(gen.ProcessStateInit))
	p.trapExit.Store(options.TrapExit)
	p.log = n.log.child(options.LogLevel, zap.Stringer("pid", pid))
	return p
}

func (n *node) registerProcess(p *process) error {
	n.mutexProcesses.Lock()
	defer n.mutexProcesses.Unlock()

	// checked under the lock, so Stop never misses a process
	if n.running.Load() == false {
		return gen.ErrNodeTerminated
	}
	n.processes[p.pid.ID] = p
	return nil
}

func (n *node) unregisterProcess(p *process) {
	n.mutexProcesses.Lock()
	delete(n.processes, p.pid.ID)
	n.mutexProcesses.Unlock()
}

func (n *node) processByPid(pid gen.PID) *process {
	if pid.Node != n.name || pid.Creation != n.creation {
		return nil
	}
	n.mutexProcesses.RLock()
	defer n.mutexProcesses.RUnlock()
	return n.processes[pid.ID]
}

func (n *node) isProcessAlive(pid gen.PID) bool {
	p := n.processByPid(pid)
	if p == nil {
		return false
	}
	return p.isAlive()
}

func (n *node) spawn(parent gen.PID, fn gen.ProcessFunc, options gen.ProcessOptions, link bool) (gen.PID, error) {
	if fn == nil {
		return gen.PID{}, gen.ErrIncorrect
	}

	p := n.newProcess(parent, options)
	if err := n.registerProcess(p); err != nil {
		p.cancel()
		return gen.PID{}, err
	}
	n.metrics.alive.Inc()

	if link {
		// the link must exist before the process starts running
		if err := n.links.link(parent, p.pid, n.isProcessAlive); err != nil {
			n.discard(p)
			return gen.PID{}, err
		}
	}

	if p.start(fn) == false {
		return gen.PID{}, gen.ErrProcessTerminated
	}
	n.metrics.spawned.Inc()
	p.log.Trace("spawned by %s", parent)
	return p.pid, nil
}

// newTransient registers a process with no goroutine. Node uses it to make
// requests on behalf of the caller goroutine.
func (n *node) newTransient() (*process, error) {
	p := n.newProcess(gen.PID{}, gen.ProcessOptions{})
	p.transient = true
	p.state.Store(int32(gen.ProcessStateRunning))
	if err := n.registerProcess(p); err != nil {
		p.cancel()
		return nil, err
	}
	return p, nil
}

// discard removes a process that has never been started.
func (n *node) discard(p *process) {
	if p.markTerminated(gen.TerminateReasonNormal, true) == false {
		// has been terminated by the exit of the linked process
		return
	}
	n.links.remove(p.pid)
	n.unregisterProcess(p)
	close(p.done)
	n.metrics.alive.Dec()
}

func (n *node) routeSend(to gen.PID, message any) error {
	if n.running.Load() == false {
		return gen.ErrNodeTerminated
	}

	p := n.processByPid(to)
	if p == nil || p.mailbox.push(message) == false {
		// sending to a dead process is not an error
		n.metrics.dropped.Inc()
		n.log.Trace("message to %s dropped: process is unknown or terminated", to)
		return nil
	}
	p.messagesIn.Inc()
	n.metrics.sent.Inc()
	return nil
}

func (n *node) routeSendExit(from gen.PID, to gen.PID, reason error) error {
	if reason == nil {
		return gen.ErrIncorrect
	}
	if n.running.Load() == false {
		return gen.ErrNodeTerminated
	}

	p := n.processByPid(to)
	if p == nil {
		return nil
	}

	n.log.Trace("exit signal from %s to %s with reason %s", from, to, reason)

	if reason == gen.TerminateReasonKill {
		n.metrics.exit(exitFatal)
		n.terminate(p, gen.TerminateReasonKilled, false)
		return nil
	}

	if p.trapExit.Load() {
		if p.mailbox.push(gen.MessageExit{PID: from, Reason: reason}) {
			n.metrics.exit(exitTrapped)
		}
		return nil
	}

	if gen.IsNormalExit(reason) {
		n.metrics.exit(exitIgnored)
		return nil
	}

	n.metrics.exit(exitFatal)
	n.terminate(p, reason, false)
	return nil
}

// terminate marks the process terminated and propagates the exit reason to
// the linked processes. Every process terminated by propagation gets into the
// queue, so the whole linked set is handled in this loop (no recursion).
// A process is terminated once; the visited set keeps the cycles from
// looping.
func (n *node) terminate(p *process, reason error, self bool) {
	if p.markTerminated(reason, self) == false {
		return
	}

	queue := []*process{p}
	visited := map[gen.PID]bool{p.pid: true}

	for len(queue) > 0 {
		dead := queue[0]
		queue = queue[1:]
		deadReason := dead.reason.Load()

		for _, peer := range n.links.remove(dead.pid) {
			target := n.processByPid(peer)
			if target == nil {
				continue
			}

			if target.trapExit.Load() {
				if target.mailbox.push(gen.MessageExit{PID: dead.pid, Reason: deadReason}) {
					n.metrics.exit(exitTrapped)
				}
				continue
			}

			if gen.IsNormalExit(deadReason) {
				n.metrics.exit(exitIgnored)
				continue
			}

			if visited[peer] {
				continue
			}
			visited[peer] = true

			if target.markTerminated(deadReason, false) {
				n.metrics.exit(exitFatal)
				target.log.Trace("terminated by the exit of linked process %s", dead.pid)
				queue = append(queue, target)
			}
		}

		n.finalize(dead)
	}
}

func (n *node) finalize(p *process) {
	n.unregisterProcess(p)
	close(p.done)

	if p.transient {
		return
	}

	reason := p.reason.Load()
	n.metrics.terminated(terminationKind(reason))
	switch {
	case gen.IsNormalExit(reason):
		p.log.Trace("process terminated normally")
	case reason == gen.TerminateReasonShutdown:
		p.log.Debug("process terminated - %s", reason)
	default:
		p.log.Error("process terminated abnormally - %s", reason)
	}
}

func terminationKind(reason error) string {
	switch {
	case gen.IsNormalExit(reason):
		return terminationNormal
	case reason == gen.TerminateReasonKilled:
		return terminationKilled
	case reason == gen.TerminateReasonShutdown:
		return terminationShutdown
	}
	return terminationAbnormal
}

func (n *node) timer(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout <= 0 {
		return nil, func() {}
	}
	t := n.clock.Timer(timeout)
	return t.C, func() { t.Stop() }
}
