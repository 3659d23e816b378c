package node

import (
	"testing"
	"time"

	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"ergo.services/actor/gen"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestNode(t *testing.T) gen.Node {
	t.Helper()
	n, err := Start(Options{
		Name:     gen.Atom("test-" + t.Name()),
		Logger:   zaptest.NewLogger(t),
		LogLevel: gen.LogLevelDebug,
	})
	require.NoError(t, err)
	t.Cleanup(n.Stop)
	return n
}

// waitForever blocks in Receive until the process is terminated.
func waitForever(p gen.Process) error {
	for {
		if _, err := p.Receive(); err != nil {
			return err
		}
	}
}

// failOn terminates the process with the first error it receives.
func failOn(p gen.Process) error {
	for {
		m, err := p.Receive()
		if err != nil {
			return err
		}
		if e, ok := m.(error); ok {
			return e
		}
	}
}

// spawnObserver starts a process trapping exits. Every message it receives
// is forwarded into the returned channel.
func spawnObserver(t *testing.T, n gen.Node) (gen.PID, <-chan any) {
	t.Helper()
	ch := make(chan any, 100)
	pid, err := n.Spawn(func(p gen.Process) error {
		for {
			m, err := p.Receive()
			if err != nil {
				return nil
			}
			ch <- m
		}
	}, gen.ProcessOptions{TrapExit: true})
	require.NoError(t, err)
	return pid, ch
}

func expectExit(t *testing.T, ch <-chan any) gen.MessageExit {
	t.Helper()
	select {
	case m := <-ch:
		exit, ok := m.(gen.MessageExit)
		require.True(t, ok, "expected gen.MessageExit, got %#v", m)
		return exit
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for the exit message")
	}
	return gen.MessageExit{}
}

func expectNothing(t *testing.T, ch <-chan any) {
	t.Helper()
	select {
	case m := <-ch:
		require.FailNow(t, "unexpected message", "%#v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNodeStartStop(t *testing.T) {
	n := newTestNode(t)
	require.True(t, n.IsAlive())
	require.Equal(t, gen.Atom("test-TestNodeStartStop"), n.Name())

	pid, err := n.Spawn(waitForever, gen.ProcessOptions{})
	require.NoError(t, err)
	require.True(t, n.IsProcessAlive(pid))
	require.Contains(t, n.ProcessList(), pid)

	n.Stop()
	require.False(t, n.IsAlive())
	require.NoError(t, n.WaitWithTimeout(time.Second))
	require.False(t, n.IsProcessAlive(pid))

	_, err = n.Spawn(waitForever, gen.ProcessOptions{})
	require.ErrorIs(t, err, gen.ErrNodeTerminated)
	require.ErrorIs(t, n.Send(pid, 1), gen.ErrNodeTerminated)
}

func TestNodeDefaultName(t *testing.T) {
	n, err := Start(Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer n.Stop()
	require.Regexp(t, "^node-[0-9a-f-]{36}$", string(n.Name()))
}

func TestNodeStopShutdownReason(t *testing.T) {
	n := newTestNode(t)
	pid, err := n.Spawn(waitForever, gen.ProcessOptions{})
	require.NoError(t, err)

	timer := time.AfterFunc(50*time.Millisecond, n.Stop)
	defer timer.Stop()

	reason, err := n.WaitProcess(pid, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, gen.TerminateReasonShutdown, reason)
	require.NoError(t, n.WaitWithTimeout(5*time.Second))
}

func TestNodeSpawnIncorrect(t *testing.T) {
	n := newTestNode(t)
	_, err := n.Spawn(nil, gen.ProcessOptions{})
	require.ErrorIs(t, err, gen.ErrIncorrect)
}

func TestNodeWaitProcess(t *testing.T) {
	n := newTestNode(t)

	errBoom := errors.New("boom")
	pid, err := n.Spawn(failOn, gen.ProcessOptions{})
	require.NoError(t, err)

	_, err = n.WaitProcess(pid, 20*time.Millisecond)
	require.ErrorIs(t, err, gen.ErrTimeout)

	timer := time.AfterFunc(50*time.Millisecond, func() {
		n.Send(pid, errBoom)
	})
	defer timer.Stop()

	reason, err := n.WaitProcess(pid, 0)
	require.NoError(t, err)
	require.Equal(t, gen.AbnormalExit{Cause: errBoom}, reason)
	require.ErrorIs(t, reason, errBoom)

	_, err = n.WaitProcess(pid, time.Second)
	require.ErrorIs(t, err, gen.ErrProcessUnknown)
}

func TestNodeMetrics(t *testing.T) {
	n := newTestNode(t)
	name := string(n.Name())

	pid, err := n.Spawn(func(p gen.Process) error {
		_, err := p.Receive()
		return err
	}, gen.ProcessOptions{})
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(processesSpawned.WithLabelValues(name)))
	require.Equal(t, float64(1), testutil.ToFloat64(processesAlive.WithLabelValues(name)))

	observer, ch := spawnObserver(t, n)
	require.NoError(t, n.Link(observer, pid))
	require.NoError(t, n.Send(pid, "stop"))
	exit := expectExit(t, ch)
	require.Equal(t, gen.TerminateReasonNormal, exit.Reason)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(processTerminations.WithLabelValues(name, terminationNormal)) == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, float64(1), testutil.ToFloat64(processesAlive.WithLabelValues(name)))
	require.Equal(t, float64(1), testutil.ToFloat64(exitSignals.WithLabelValues(name, exitTrapped)))
	require.Equal(t, float64(1), testutil.ToFloat64(messagesSent.WithLabelValues(name)))

	require.NoError(t, n.Send(pid, "dropped"))
	require.Equal(t, float64(1), testutil.ToFloat64(messagesDropped.WithLabelValues(name)))
}
