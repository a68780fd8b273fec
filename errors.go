package stoplight

import (
	"errors"

	"github.com/anggasct/stoplight/pkg/utils"
)

// ErrorCode identifies a class of intersection errors
type ErrorCode string

const (
	// No error, or an error from outside this module
	ErrCodeNone ErrorCode = ""
	// A nil lock was passed to a lock operation
	ErrCodeNilLock ErrorCode = utils.CodeNilLock
	// A task released a lock it does not hold
	ErrCodeNotOwner ErrorCode = utils.CodeNotOwner
	// A task acquired a lock it already holds
	ErrCodeAlreadyOwned ErrorCode = utils.CodeAlreadyOwned
	// A lock was destroyed while tasks were waiting on it
	ErrCodeLockBusy ErrorCode = utils.CodeLockBusy
	// A destroyed lock was acquired
	ErrCodeLockDestroyed ErrorCode = utils.CodeLockDestroyed
	// The scheduler refused to start a car
	ErrCodeSpawnFailed ErrorCode = utils.CodeSpawnFailed
	// No route for a direction and maneuver
	ErrCodeRouteNotFound ErrorCode = utils.CodeRouteNotFound
	// A route table entry is malformed
	ErrCodeInvalidRoute ErrorCode = utils.CodeInvalidRoute
	// Configuration is invalid
	ErrCodeConfiguration ErrorCode = utils.CodeConfiguration
	// A wait ended because its context was cancelled
	ErrCodeCancelled ErrorCode = utils.CodeCancelled
)

// GetErrorCode returns the code of the first IntersectionError in err's chain
func GetErrorCode(err error) ErrorCode {
	var ie *utils.IntersectionError
	if errors.As(err, &ie) {
		return ErrorCode(ie.Code)
	}
	return ErrCodeNone
}

// IsIntersectionError checks if err's chain holds an IntersectionError
func IsIntersectionError(err error) bool {
	var ie *utils.IntersectionError
	return errors.As(err, &ie)
}

// IsNotOwner checks if err reports a release by a task that did not hold the lock
func IsNotOwner(err error) bool {
	return errors.Is(err, utils.ErrNotOwner)
}

// IsSpawnFailure checks if err reports a car the scheduler would not start
func IsSpawnFailure(err error) bool {
	return errors.Is(err, utils.ErrSpawnFailed)
}

// IsCancelled checks if err reports an abandoned wait
func IsCancelled(err error) bool {
	return errors.Is(err, utils.ErrCancelled)
}

// IsConfigurationError checks if err reports invalid configuration
func IsConfigurationError(err error) bool {
	return errors.Is(err, utils.ErrConfiguration)
}

// IsRouteError checks if err reports a missing or malformed route
func IsRouteError(err error) bool {
	return errors.Is(err, utils.ErrRouteNotFound) || errors.Is(err, utils.ErrInvalidRoute)
}
