package service

import "errors"

// ErrNotFound is returned when a record does not exist or belongs to another user.
// The two cases are not distinguished.
var ErrNotFound = errors.New("record not found")

// ErrNoSession is returned by Logout when the presented token does not resolve to a live session.
var ErrNoSession = errors.New("couldn't find an active session")
