package server

import "errors"

// ErrSocketClosedUnexpectedly is returned by Run when the read side of one
// of the server's sockets ends. Run returns it after Shutdown has closed the
// sockets too; it does not tell a deliberate Shutdown from an unexpected
// close.
var ErrSocketClosedUnexpectedly = errors.New("someip/server: socket closed unexpectedly")
