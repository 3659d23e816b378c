package gen

import (
	"context"
	"fmt"
	"time"

	"github.com/pingcap/errors"
)

// ProcessFunc is the computation of a process. It runs in its own goroutine.
//
// Returning nil (or TerminateReasonNormal) terminates the process normally.
// Returning any other error, or panicking, terminates the process
// abnormally with AbnormalExit as the reason.
type ProcessFunc func(process Process) error

// MatchFunc is used with ReceiveMatch to pick a message out of the mailbox.
type MatchFunc func(message any) bool

// ProcessState represents the current state of a process in its lifecycle.
type ProcessState int32

func (p ProcessState) String() string {
	switch p {
	case ProcessStateInit:
		return "init"
	case ProcessStateRunning:
		return "running"
	case ProcessStateWaitResponse:
		return "wait response"
	case ProcessStateZombee:
		return "zombee"
	case ProcessStateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state#%d", int32(p))
}

func (p ProcessState) MarshalJSON() ([]byte, error) {
	return []byte("\"" + p.String() + "\""), nil
}

const (
	// ProcessStateInit indicates the process is registered but its goroutine
	// is not started yet.
	ProcessStateInit ProcessState = 1

	// ProcessStateRunning indicates the process goroutine is executing the
	// computation or is blocked in Receive.
	ProcessStateRunning ProcessState = 4

	// ProcessStateWaitResponse indicates the process is blocked in Call
	// waiting for the response.
	ProcessStateWaitResponse ProcessState = 8

	// ProcessStateZombee indicates the process was terminated by an exit
	// signal while its goroutine was still running. The process is dead for
	// everybody else; the goroutine unwinds on its next Receive/Call.
	ProcessStateZombee ProcessState = 16

	// ProcessStateTerminated is the final state.
	ProcessStateTerminated ProcessState = 32
)

var (
	// TerminateReasonNormal indicates normal process termination. Linked
	// processes are not affected unless they trap exits.
	TerminateReasonNormal error = errors.New("normal")

	// TerminateReasonKill can be sent with SendExit to terminate a process
	// unconditionally, even if it traps exits.
	TerminateReasonKill error = errors.New("kill")

	// TerminateReasonKilled is the exit reason of a process terminated with
	// TerminateReasonKill. It propagates to the links as an abnormal reason.
	TerminateReasonKilled error = errors.New("killed")

	// TerminateReasonShutdown is used for the processes left running when
	// the node stops.
	TerminateReasonShutdown error = errors.New("shutdown")
)

// AbnormalExit is the exit reason of a process that failed: its computation
// returned an error or panicked. Cause keeps the returned error or the
// recovered panic value.
type AbnormalExit struct {
	Cause any
}

func (a AbnormalExit) Error() string {
	return fmt.Sprintf("abnormal: %v", a.Cause)
}

// Unwrap makes errors.Is work with the wrapped error (if the cause is an error).
func (a AbnormalExit) Unwrap() error {
	if err, ok := a.Cause.(error); ok {
		return err
	}
	return nil
}

// IsNormalExit returns true if the reason is a normal termination.
func IsNormalExit(reason error) bool {
	return reason == nil || reason == TerminateReasonNormal
}

// ExitReason converts the value returned by (or recovered from) a process
// computation into the exit reason.
func ExitReason(v any) error {
	switch r := v.(type) {
	case nil:
		return TerminateReasonNormal
	case AbnormalExit:
		return r
	case *AbnormalExit:
		return *r
	case error:
		if r == TerminateReasonNormal {
			return r
		}
		return AbnormalExit{Cause: r}
	}
	return AbnormalExit{Cause: v}
}

// ExitCause returns the cause of an abnormal exit reason. For normal reasons
// (and any non-AbnormalExit error) it returns the reason itself.
func ExitCause(reason error) any {
	if a, ok := reason.(AbnormalExit); ok {
		return a.Cause
	}
	return reason
}

// ProcessOptions
type ProcessOptions struct {
	// TrapExit sets the initial value of the trap-exit flag.
	TrapExit bool
	// LogLevel of the process. LogLevelDefault inherits the node log level.
	LogLevel LogLevel
}

// ProcessInfo
type ProcessInfo struct {
	PID             PID
	Parent          PID
	State           ProcessState
	TrapExit        bool
	Links           []PID
	MessageQueueLen int64
	MessagesIn      uint64
	MessagesOut     uint64
	Uptime          int64
	LogLevel        LogLevel
}

// Caller is the part of Node and Process used to make requests. It allows
// request helpers (like act.Agent) to be used from within a process as well
// as from any goroutine.
type Caller interface {
	Send(to PID, message any) error
	CallWithTimeout(to PID, request any, timeout time.Duration) (any, error)
}

// Process is the interface of a running process. It is passed to the
// ProcessFunc and must be used within its goroutine only.
type Process interface {
	Caller

	// Node returns the node this process belongs to.
	Node() Node
	// PID returns the process identifier.
	PID() PID
	// Parent returns the PID of the spawning process. Zero PID if the process
	// was spawned by the node.
	Parent() PID
	// Log returns the process logger.
	Log() Log
	// State returns the current state of the process.
	State() ProcessState
	// Context is canceled once the process is terminated. Long running calls
	// made by the computation (like store operations) may use it.
	Context() context.Context

	// Spawn creates a new process. The new process is not linked to this one.
	Spawn(fn ProcessFunc, options ProcessOptions) (PID, error)
	// SpawnLink creates a new process linked to this one. The link exists
	// before the new process starts running.
	SpawnLink(fn ProcessFunc, options ProcessOptions) (PID, error)

	// Send puts the message into the mailbox of the target process. Sending
	// to a terminated (or unknown) process is a no-op.
	Send(to PID, message any) error
	// SendExit sends an exit signal to the target process.
	SendExit(to PID, reason error) error
	// SendResponse replies to the request received as MessageCall.
	SendResponse(to PID, ref Ref, response any) error
	// SendResponseError replies to the request received as MessageCall with
	// an error.
	SendResponseError(to PID, ref Ref, err error) error

	// Receive returns the oldest message in the mailbox, blocking until a
	// message arrives. Returns ErrProcessTerminated if this process has been
	// terminated by an exit signal.
	Receive() (any, error)
	// ReceiveWithTimeout is Receive bounded by the timeout (ErrTimeout).
	ReceiveWithTimeout(timeout time.Duration) (any, error)
	// ReceiveMatch returns the oldest message the match function accepts.
	// Messages skipped over stay in the mailbox keeping their order.
	// Zero timeout means waiting forever.
	ReceiveMatch(match MatchFunc, timeout time.Duration) (any, error)

	// Call makes a synchronous request with the default timeout.
	Call(to PID, request any) (any, error)
	// CallWithTimeout makes a synchronous request. Returns ErrTimeout if the
	// response hasn't been received in time and ErrProcessTerminated if the
	// target is (or becomes) dead.
	CallWithTimeout(to PID, request any, timeout time.Duration) (any, error)

	// Link creates a bidirectional link with the target process.
	// Linking with a dead process returns ErrProcessTerminated.
	Link(target PID) error
	// Unlink removes the link with the target process.
	Unlink(target PID) error
	// IsLinked returns true if this process is linked with the target.
	IsLinked(target PID) bool
	// Links returns the list of linked processes.
	Links() []PID

	// SetTrapExit enables/disables trapping exit signals. Returns the
	// previous value.
	SetTrapExit(trap bool) bool
	// TrapExit returns the current value of the trap-exit flag.
	TrapExit() bool

	// Info returns summary information about this process.
	Info() (ProcessInfo, error)
}
