package node

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"ergo.services/actor/gen"
)

type node struct {
	name     gen.Atom
	creation int64
	start    time.Time

	callTimeout time.Duration
	clock       clock.Clock
	log         *log
	metrics     *metrics

	nextID  atomic.Uint64
	nextRef atomic.Uint64

	mutexProcesses sync.RWMutex
	processes      map[uint64]*process
	links          *links

	// goroutines of the running processes
	wg sync.WaitGroup

	running  atomic.Bool
	stopOnce sync.Once
	ctx      context.Context
	stop     context.CancelFunc
}

// Start starts a new node with the given options.
func Start(options Options) (gen.Node, error) {
	options, err := options.withDefaults()
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	now := options.Clock.Now()
	n := &node{
		name: options.Name,
		// Creation must be > 0 so make 'or 0x1'
		creation:    now.Unix() | 1,
		start:       now,
		callTimeout: options.DefaultCallTimeout,
		clock:       options.Clock,
		metrics:     newMetrics(string(options.Name)),
		processes:   make(map[uint64]*process),
		links:       newLinks(),
		ctx:         ctx,
		stop:        stop,
	}
	n.log = createLog(options.LogLevel, options.Logger.With(zap.String("node", string(options.Name))))
	n.running.Store(true)

	n.log.Info("node %s started", n.name)
	return n, nil
}

// gen.Node interface implementation

func (n *node) Name() gen.Atom {
	return n.name
}

func (n *node) Creation() int64 {
	return n.creation
}

func (n *node) IsAlive() bool {
	return n.running.Load()
}

func (n *node) Uptime() int64 {
	if n.IsAlive() == false {
		return 0
	}
	return int64(n.clock.Since(n.start).Seconds())
}

func (n *node) Log() gen.Log {
	return n.log
}

func (n *node) Spawn(fn gen.ProcessFunc, options gen.ProcessOptions) (gen.PID, error) {
	return n.spawn(gen.PID{}, fn, options, false)
}

func (n *node) SpawnLink(from gen.PID, fn gen.ProcessFunc, options gen.ProcessOptions) (gen.PID, error) {
	return n.spawn(from, fn, options, true)
}

func (n *node) Send(to gen.PID, message any) error {
	return n.routeSend(to, message)
}

func (n *node) SendExit(to gen.PID, reason error) error {
	return n.routeSendExit(gen.PID{}, to, reason)
}

func (n *node) Kill(pid gen.PID) error {
	return n.routeSendExit(gen.PID{}, pid, gen.TerminateReasonKill)
}

func (n *node) Call(to gen.PID, request any) (any, error) {
	return n.CallWithTimeout(to, request, n.callTimeout)
}

func (n *node) CallWithTimeout(to gen.PID, request any, timeout time.Duration) (any, error) {
	p, err := n.newTransient()
	if err != nil {
		return nil, err
	}
	defer n.terminate(p, gen.TerminateReasonNormal, true)
	return p.CallWithTimeout(to, request, timeout)
}

func (n *node) Link(a gen.PID, b gen.PID) error {
	return n.links.link(a, b, n.isProcessAlive)
}

func (n *node) Unlink(a gen.PID, b gen.PID) error {
	n.links.unlink(a, b)
	return nil
}

func (n *node) IsLinked(a gen.PID, b gen.PID) bool {
	return n.links.isLinked(a, b)
}

func (n *node) IsProcessAlive(pid gen.PID) bool {
	return n.isProcessAlive(pid)
}

func (n *node) ProcessInfo(pid gen.PID) (gen.ProcessInfo, error) {
	p := n.processByPid(pid)
	if p == nil || p.transient {
		return gen.ProcessInfo{}, gen.ErrProcessUnknown
	}
	return p.Info()
}

func (n *node) ProcessList() []gen.PID {
	n.mutexProcesses.RLock()
	defer n.mutexProcesses.RUnlock()

	list := make([]gen.PID, 0, len(n.processes))
	for _, p := range n.processes {
		if p.transient || p.isAlive() == false {
			continue
		}
		list = append(list, p.pid)
	}
	return list
}

func (n *node) WaitProcess(pid gen.PID, timeout time.Duration) (reason error, err error) {
	p := n.processByPid(pid)
	if p == nil {
		return nil, gen.ErrProcessUnknown
	}

	timer, stop := n.timer(timeout)
	defer stop()

	select {
	case <-p.done:
		return p.reason.Load(), nil
	case <-timer:
		return nil, gen.ErrTimeout
	}
}

// Stop terminates all the processes with gen.TerminateReasonShutdown and
// waits for their goroutines to return. Must not be called by a process.
func (n *node) Stop() {
	n.stopOnce.Do(func() {
		n.mutexProcesses.Lock()
		n.running.Store(false)
		list := make([]*process, 0, len(n.processes))
		for _, p := range n.processes {
			list = append(list, p)
		}
		n.mutexProcesses.Unlock()

		for _, p := range list {
			n.terminate(p, gen.TerminateReasonShutdown, false)
		}
		n.wg.Wait()

		n.metrics.cleanup(string(n.name))
		n.log.Info("node %s stopped", n.name)
		_ = n.log.logger.Sync()
		n.stop()
	})
}

func (n *node) Wait() {
	<-n.ctx.Done()
}

// WaitWithTimeout waits until node stopped. Return ErrTimeout
// if given timeout is exceeded
func (n *node) WaitWithTimeout(timeout time.Duration) error {
	timer, stop := n.timer(timeout)
	defer stop()

	select {
	case <-timer:
		return gen.ErrTimeout
	case <-n.ctx.Done():
		return nil
	}
}
