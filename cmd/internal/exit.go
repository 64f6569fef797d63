package internal

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Fatal will Echo the message and os.Exit with code 1.
func Fatal(msg string, args ...any) {
	Echo(msg, args...)
	os.Exit(1)
}

// Echo will emit the given message without any logging formatting.
func Echo(msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = fmt.Fprintf(os.Stderr, msg, args...)
}

// Confirm prompts on stderr and reads a yes/no answer from stdin. Anything
// other than "y" or "yes" counts as no.
func Confirm(msg string, args ...any) bool {
	_, _ = fmt.Fprintf(os.Stderr, msg+" [y/N]: ", args...)
	resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	resp = strings.ToLower(strings.TrimSpace(resp))
	return resp == "y" || resp == "yes"
}
