package internal

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

// ReadPassphrase prompts for a passphrase on the controlling terminal
// without echoing it. With confirm set it prompts twice and requires both
// entries to match, which is the mode used before encrypting anything.
// The returned buffer belongs to the caller and should be wiped after use.
func ReadPassphrase(confirm bool) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal; cannot securely read a passphrase")
	}
	fmt.Fprint(os.Stderr, "Enter passphrase: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(first) == 0 {
		return nil, errors.New("empty passphrase is not allowed")
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			WipeBytes(first)
			return nil, fmt.Errorf("failed to read confirmation: %w", err)
		}
		match := len(first) == len(second) && subtle.ConstantTimeCompare(first, second) == 1
		WipeBytes(second)
		if !match {
			WipeBytes(first)
			return nil, errors.New("passphrases do not match")
		}
	}
	return first, nil
}

// WipeBytes zeroes a sensitive buffer in place.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
