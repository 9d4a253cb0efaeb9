package batch

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Exit codes for stage runners. Automation branches on these: zero means
// every considered item succeeded or was skipped.
const (
	ExitOK          = 0
	ExitItemFailure = 1
	ExitFatal       = 2
)

// ExitCode maps a summary to the process exit status.
func ExitCode(s Summary) int {
	if s.Failed > 0 {
		return ExitItemFailure
	}
	return ExitOK
}

// Print writes the run summary in the operator-facing box format.
func Print(w io.Writer, title string, s Summary) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", line, title, line)
	fmt.Fprintf(w, "Total items: %d\n", s.Total)
	fmt.Fprintf(w, "Succeeded:   %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failed:      %d\n", s.Failed)
	fmt.Fprintf(w, "Skipped:     %d\n", s.Skipped)

	if len(s.SkippedKeys) > 0 {
		fmt.Fprintf(w, "\nSkipped items (%d):\n", s.Skipped)
		for _, k := range s.SkippedKeys {
			fmt.Fprintf(w, "  - %s\n", k)
		}
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(w, "\nFailed items (%d):\n", s.Failed)
		for _, f := range s.Failures {
			fmt.Fprintf(w, "  - %s: [%s] %s\n", f.Key, f.Kind, f.Message)
		}
	}
	fmt.Fprintf(w, "%s\n", line)
}

// WriteDoneList writes the keys that should not be reprocessed as a
// newline-delimited skip-list for the next run. Success keys are always
// included; failure keys are added when the operator has chosen not to retry
// failures automatically. The output parses back through ParseSkipFile.
func WriteDoneList(path string, s Summary, includeFailed bool) error {
	var b strings.Builder
	b.WriteString("# keys already processed; feed back via --skip-list\n")
	for _, k := range s.SuccessKeys {
		b.WriteString(k)
		b.WriteByte('\n')
	}
	if includeFailed {
		for _, f := range s.Failures {
			b.WriteString(f.Key)
			b.WriteByte('\n')
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write done list: %w", err)
	}
	return nil
}
