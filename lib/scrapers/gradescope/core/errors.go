package core

import (
	"errors"
	"fmt"
)

var (
	// SessionError means the portal answered without a session cookie,
	// usually the portal is down or the network is broken.
	SessionError       = errors.New("failed to create a session with the portal")
	CsrfNotFound       = errors.New("can not retrieve authenticity token to log in")
	MissingCredentials = errors.New("email or password can't be empty")
	InvalidCredentials = errors.New("invalid email/password combination")
	// LoginRejected means the login redirect arrived without the remember
	// token that was asked for.
	LoginRejected     = errors.New("login was not accepted by the portal")
	LogoutFailed      = errors.New("failed to log out")
	UnsupportedMethod = errors.New("unsupported request method")
)

// TransportError wraps connection level failures, the portal never
// produced a response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
