package node

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"ergo.services/actor/gen"
)

func isInt(m any) bool {
	_, ok := m.(int)
	return ok
}

func TestMailboxPop(t *testing.T) {
	m := newMailbox()
	for _, v := range []any{1, "a", 2, "b", 3} {
		require.True(t, m.push(v))
	}
	require.Equal(t, int64(5), m.len())

	v, err := m.pop(func(m any) bool { return m == "b" }, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "b", v)

	// skipped messages are in the save queue now
	require.Equal(t, int64(4), m.len())

	v, err = m.pop(isInt, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	var rest []any
	for i := 0; i < 3; i++ {
		v, err := m.pop(nil, nil, nil)
		require.NoError(t, err)
		rest = append(rest, v)
	}
	require.Equal(t, []any{"a", 2, 3}, rest)
	require.Zero(t, m.len())
}

func TestMailboxTimeout(t *testing.T) {
	m := newMailbox()
	mock := clock.NewMock()
	timer := mock.Timer(time.Second)

	require.True(t, m.push("skipped"))
	mock.Add(time.Second)

	_, err := m.pop(isInt, timer.C, nil)
	require.ErrorIs(t, err, gen.ErrTimeout)

	// the skipped one is still there
	v, err := m.pop(nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "skipped", v)
}

func TestMailboxWakeUp(t *testing.T) {
	m := newMailbox()
	go func() {
		time.Sleep(10 * time.Millisecond)
		m.push("a")
		m.push(1)
	}()
	v, err := m.pop(isInt, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestMailboxClose(t *testing.T) {
	m := newMailbox()
	require.True(t, m.push(1))
	m.close()
	m.close()

	require.False(t, m.push(2))
	_, err := m.pop(nil, nil, nil)
	require.ErrorIs(t, err, gen.ErrProcessTerminated)
}

func TestMailboxAbort(t *testing.T) {
	m := newMailbox()
	abort := make(chan struct{})
	close(abort)

	_, err := m.pop(isInt, nil, abort)
	require.ErrorIs(t, err, errAborted)

	// a message pushed before the abort is still returned
	require.True(t, m.push(1))
	v, err := m.pop(isInt, nil, abort)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}
