package data

import (
	"errors"
	"sync"
)

// Standard errors that tree operations and gateway implementations should use.
var (
	// Node and location errors
	ErrNotExist       = errors.New("serverx: node or location does not exist")
	ErrExist          = errors.New("serverx: location already exists")
	ErrParentNotFound = errors.New("serverx: parent not found")
	ErrNotFolder      = errors.New("serverx: not a folder")
	ErrNotFile        = errors.New("serverx: not a file")
	ErrRootRemoval    = errors.New("serverx: root cannot be removed")

	// Gateway errors
	ErrMalformedAddress = errors.New("serverx: malformed gateway address")
	ErrUnknownProtocol  = errors.New("serverx: unknown gateway protocol")
	ErrGatewayFailed    = errors.New("serverx: gateway initialization failed")
	ErrGatewayClosed    = errors.New("serverx: gateway closed")
)

// Errors collects multiple errors, e.g. while closing several resources.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
