package services

import "errors"

var (
	// ErrNoSuchUser reports a reference to a user the store does not hold.
	ErrNoSuchUser = errors.New("no such user")
	// ErrNoSuchPost reports a reference to a post the store does not hold.
	ErrNoSuchPost = errors.New("no such post")
	// ErrNoSuchAction reports an attempt to remove a reaction that does not exist.
	ErrNoSuchAction = errors.New("no such reaction")
	// ErrPermissionDenied reports an operation the user is not allowed to
	// perform: mutating another author's post, or rating one's own.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateAction reports a reaction identical to the one already present.
	ErrDuplicateAction = errors.New("reaction already exists")
	// ErrUserExists reports a username or email collision at registration.
	ErrUserExists = errors.New("username or email already exists")
)
