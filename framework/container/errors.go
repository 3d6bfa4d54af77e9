package container

import (
	"errors"
	"strconv"
)

var (
	// ErrUninstantiable matches errors for abstractions with no binding that
	// cannot be constructed directly (interfaces, non-struct types).
	ErrUninstantiable = errors.New("container: target is not instantiable")

	// ErrNotResolvable matches errors for parameters that could not be filled.
	ErrNotResolvable = errors.New("container: parameter is not resolvable")

	// ErrCircularAlias matches errors for alias chains that loop.
	ErrCircularAlias = errors.New("container: circular alias")

	// ErrBuildFailed matches errors raised while instantiating a target.
	ErrBuildFailed = errors.New("container: build failed")

	// ErrCircularDependency matches errors for abstractions that depend on themselves.
	ErrCircularDependency = errors.New("container: circular dependency")
)

// UninstantiableError is returned when an abstraction has no binding and its
// type cannot be built.
type UninstantiableError struct {
	Abstraction string
	Cause       error
}

func (e *UninstantiableError) Error() string {
	msg := "container: target [" + e.Abstraction + "] is not instantiable"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UninstantiableError) Is(target error) bool { return target == ErrUninstantiable }
func (e *UninstantiableError) Unwrap() error        { return e.Cause }

// NotResolvableError is returned when a parameter has no explicit value, no
// binding and no default. Cause holds the nested failure for class parameters.
type NotResolvableError struct {
	Param string
	Owner string
	Cause error
}

func (e *NotResolvableError) Error() string {
	msg := "container: unresolvable parameter " + strconv.Quote(e.Param) + " of [" + e.Owner + "]"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NotResolvableError) Is(target error) bool { return target == ErrNotResolvable }
func (e *NotResolvableError) Unwrap() error        { return e.Cause }

// CircularAliasError is returned when following an alias never ends.
type CircularAliasError struct {
	Name string
}

func (e *CircularAliasError) Error() string {
	return "container: alias [" + e.Name + "] is circular"
}

func (e *CircularAliasError) Is(target error) bool { return target == ErrCircularAlias }

// BuildError wraps a failure raised by a constructor, closure or reflection call.
type BuildError struct {
	Abstraction string
	Cause       error
}

func (e *BuildError) Error() string {
	return "container: building [" + e.Abstraction + "]: " + e.Cause.Error()
}

func (e *BuildError) Is(target error) bool { return target == ErrBuildFailed }
func (e *BuildError) Unwrap() error        { return e.Cause }

// CircularDependencyError is returned when an abstraction is requested while
// it is already being built further up the same resolution.
type CircularDependencyError struct {
	Abstraction string
	Path        []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency on [" + e.Abstraction + "]: " + joinPath(e.Path)
}

func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }

// isResolutionFailure reports whether err means "could not find a way to
// build it", the only failures an optional parameter may swallow.
func isResolutionFailure(err error) bool {
	if errors.Is(err, ErrCircularDependency) || errors.Is(err, ErrBuildFailed) {
		return false
	}
	return errors.Is(err, ErrUninstantiable) || errors.Is(err, ErrNotResolvable)
}
