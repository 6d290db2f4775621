package auth

import "errors"

// ErrNilConnect is returned by NewService when no ConnectFunc is given.
var ErrNilConnect = errors.New("auth connect func can not be nil")
