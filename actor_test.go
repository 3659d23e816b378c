package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"ergo.services/actor/gen"
	"ergo.services/actor/node"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStartNode(t *testing.T) {
	n, err := StartNode("demo", node.Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer n.Stop()
	require.Equal(t, gen.Atom("demo"), n.Name())
	require.True(t, n.IsAlive())

	n2, err := StartNode("", node.Options{Name: "other", Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer n2.Stop()
	require.Equal(t, gen.Atom("other"), n2.Name())
}
