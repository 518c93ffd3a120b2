package socket

import "errors"

var (
	// ErrClosed is returned by Send once ShutDown has run; Receive reports
	// ok=false instead.
	ErrClosed = errors.New("someip/socket: manager is shut down")

	// ErrSocketClosedUnexpectedly surfaces at the Receive layer when the
	// read side ends without an explicit ShutDown call (e.g. the OS
	// socket errored out).
	ErrSocketClosedUnexpectedly = errors.New("someip/socket: socket closed unexpectedly")
)
