package detect

import "fmt"

// panicToError converts a recovered panic value into an error, so a
// misbehaving phase degrades the scan instead of crashing it (§4.4, §7
// "Exception-for-control-flow in phase failures" design note).
func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("phase panicked: %w", err)
	}
	return fmt.Errorf("phase panicked: %v", r)
}
