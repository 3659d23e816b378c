package gen

import (
	"time"
)

// Node is the process scheduler. It creates processes, delivers messages
// between them and detects their termination. All methods are safe to be
// called from any goroutine.
type Node interface {
	Caller

	// Name returns the node name.
	Name() Atom
	// Creation returns the incarnation value of this node (used in PIDs).
	Creation() int64
	// IsAlive returns true if the node is running.
	IsAlive() bool
	// Uptime returns the node uptime in seconds.
	Uptime() int64
	// Log returns the node logger.
	Log() Log
	// MakeRef returns a unique reference within this node.
	MakeRef() Ref

	// Spawn creates a new process.
	Spawn(fn ProcessFunc, options ProcessOptions) (PID, error)
	// SpawnLink creates a new process linked with the given one. The link is
	// established before the new process starts.
	SpawnLink(from PID, fn ProcessFunc, options ProcessOptions) (PID, error)

	// Send puts the message into the mailbox of the target process. It is a
	// no-op if the target is dead.
	Send(to PID, message any) error
	// SendExit sends an exit signal to the target process.
	SendExit(to PID, reason error) error
	// Kill terminates the target process unconditionally.
	Kill(pid PID) error

	// Call makes a synchronous request to the process with the default
	// timeout.
	Call(to PID, request any) (any, error)
	// CallWithTimeout makes a synchronous request to the process.
	CallWithTimeout(to PID, request any, timeout time.Duration) (any, error)

	// Link creates a bidirectional link between two processes.
	Link(a PID, b PID) error
	// Unlink removes the link between two processes.
	Unlink(a PID, b PID) error
	// IsLinked returns true if the processes are linked.
	IsLinked(a PID, b PID) bool

	// IsProcessAlive returns true if the process is alive.
	IsProcessAlive(pid PID) bool
	// ProcessInfo returns summary information about the process.
	ProcessInfo(pid PID) (ProcessInfo, error)
	// ProcessList returns the list of alive processes.
	ProcessList() []PID
	// WaitProcess blocks until the process terminates and returns its exit
	// reason. Returns ErrProcessUnknown if the process is not registered
	// (already gone) and ErrTimeout if the timeout is exceeded. Zero timeout
	// means waiting forever.
	WaitProcess(pid PID, timeout time.Duration) (reason error, err error)

	// Stop terminates all the processes with TerminateReasonShutdown and
	// stops the node.
	Stop()
	// Wait blocks until the node is stopped.
	Wait()
	// WaitWithTimeout blocks until the node is stopped or the timeout exceeded.
	WaitWithTimeout(timeout time.Duration) error
}
