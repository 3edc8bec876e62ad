package shared

import "errors"

// ErrInvalidCredentials indicates login failure. It deliberately covers
// unknown email, wrong password and inactive accounts alike.
var ErrInvalidCredentials = errors.New("invalid credentials")
