package util

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument is wrapped by every MatchArg failure.
var ErrInvalidArgument = errors.New("invalid argument")

// MatchArg validates value against the allowed set, ignoring case and
// surrounding whitespace. It returns the canonical allowed spelling.
func MatchArg(name, value string, allowed ...string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if strings.ToLower(a) == v {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %s=%q must be one of [%s]", ErrInvalidArgument, name, value, strings.Join(allowed, ", "))
}
