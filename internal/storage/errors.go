package storage

import "errors"

// Common storage errors
var (
	// ErrNotInitialized indicates that the database holds no data set yet
	ErrNotInitialized = errors.New("data set is not initialized")

	// ErrAlreadyInitialized indicates an attempt to initialize a database twice
	ErrAlreadyInitialized = errors.New("data set is already initialized")

	// ErrWrongPassword indicates that the password does not open the stored control key
	ErrWrongPassword = errors.New("wrong password")

	// ErrCorruptRow indicates a stored row that does not match the registered schemas
	ErrCorruptRow = errors.New("corrupt record row")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
