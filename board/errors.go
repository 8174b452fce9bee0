package board

import "errors"

// Errors returned by Service. Callers match them with errors.Is.
var (
	ErrPostNotFound        = errors.New("post not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrGalleryNotFound     = errors.New("gallery not found")
	ErrApplicationNotFound = errors.New("gallery application not found")
	ErrUserNotFound        = errors.New("user not found")

	ErrAlreadyLiked = errors.New("already liked")

	ErrLoginRequired = errors.New("login required")
	ErrAdminOnly     = errors.New("admin only")

	// ErrAdminCredentials is returned when an administrator login lacks a
	// valid password.
	ErrAdminCredentials = errors.New("administrator credentials required")

	ErrGalleryExists     = errors.New("a gallery for this country already exists")
	ErrApplicationClosed = errors.New("gallery application already processed")
	ErrDuplicateAdmin    = errors.New("administrators 1 and 2 cannot be the same user")

	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)
