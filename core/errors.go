package core

import "fmt"

// SelectionError indicates the expert selector produced no usable
// participants after validation. The coordinator recovers it locally into a
// degraded response rather than propagating a hard failure.
type SelectionError struct {
	Query  string
	Detail string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("expert selection failed: %s", e.Detail)
}

// ToolInvocationError indicates the tool invocation bridge could not obtain a
// retrieval result after its retry budget. It is surfaced to the requesting
// specialist as a tool result, never as a pipeline failure.
type ToolInvocationError struct {
	Domain   string
	Attempts int
	Detail   string
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool invocation failed for domain %q after %d attempt(s): %s", e.Domain, e.Attempts, e.Detail)
}

// MemoryPersistError indicates a memory append failed. It is logged and
// otherwise ignored by the primary request path.
type MemoryPersistError struct {
	Namespace string
	Err       error
}

func (e *MemoryPersistError) Error() string {
	return fmt.Sprintf("memory persist failed for %s: %v", e.Namespace, e.Err)
}

func (e *MemoryPersistError) Unwrap() error { return e.Err }
