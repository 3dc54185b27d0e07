package pipeline

import "time"

// Exports for testing.

// FileSystem exports fileSystem for fault injection.
type FileSystem = fileSystem

// TryLocker exports tryLocker for mock locks.
type TryLocker = tryLocker

// WithFileSystem exports withFileSystem for testing.
var WithFileSystem = withFileSystem

// WithLockFactory exports withLockFactory for testing.
var WithLockFactory = withLockFactory

// WithClock exports withClock for testing.
func WithClock(now func() time.Time) Option { return withClock(now) }

// OSFileSystem returns the production filesystem for wrapping in tests.
func OSFileSystem() FileSystem { return osFileSystem{} }
