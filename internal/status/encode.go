// internal/status/encode.go
package status

import "fmt"

// Encode renders the end of session report.
// No IO. No side effects.
func Encode(s Snapshot) string {
	return fmt.Sprintf(
		"--- %s %s statistics ---\n%d frames transmitted, %d received, %d errors, %.1f%% frame loss\n",
		s.Device,
		s.Operation,
		s.Transmitted,
		s.Received,
		s.Errors,
		s.FrameLoss(),
	)
}
