package gen

// MessageExit is delivered to a process trapping exits when a linked process
// terminates (or an exit signal is sent with SendExit).
type MessageExit struct {
	PID    PID
	Reason error
}

// MessageCall is a synchronous request made with Call. The receiver must
// reply using SendResponse (or SendResponseError) with From and Ref.
type MessageCall struct {
	From    PID
	Ref     Ref
	Request any
}

// MessageResponse carries the reply to a request. It is consumed by the
// Call method of the requester and never returned by Receive.
type MessageResponse struct {
	From     PID
	Ref      Ref
	Response any
	Err      error
}
