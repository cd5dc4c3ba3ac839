package types

import (
	"fmt"
	"strings"
)

// StatusCode classifies a path relative to the last recorded repository state.
// The zero value means no status is known.
type StatusCode uint8

const (
	StatusNone StatusCode = iota
	StatusClean
	StatusModified
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusUntracked
	StatusIgnored
	StatusConflicted
)

const unknownStatusFormat = "unknown status code %q"

var statusNames = map[StatusCode]string{
	StatusNone:       "",
	StatusClean:      "clean",
	StatusModified:   "modified",
	StatusAdded:      "added",
	StatusDeleted:    "deleted",
	StatusRenamed:    "renamed",
	StatusUntracked:  "untracked",
	StatusIgnored:    "ignored",
	StatusConflicted: "conflicted",
}

var statusSymbols = map[StatusCode]string{
	StatusNone:       "",
	StatusClean:      " ",
	StatusModified:   "M",
	StatusAdded:      "A",
	StatusDeleted:    "D",
	StatusRenamed:    "R",
	StatusUntracked:  "?",
	StatusIgnored:    "I",
	StatusConflicted: "C",
}

// String returns the lower-case status name, empty for StatusNone.
func (code StatusCode) String() string {
	return statusNames[code]
}

// Symbol returns the one-character column code.
func (code StatusCode) Symbol() string {
	return statusSymbols[code]
}

// MarshalText renders the status by name for JSON and YAML output.
func (code StatusCode) MarshalText() ([]byte, error) {
	return []byte(code.String()), nil
}

// ParseStatusCode converts a status name back into its code.
func ParseStatusCode(name string) (StatusCode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for code, codeName := range statusNames {
		if code != StatusNone && codeName == normalized {
			return code, nil
		}
	}
	return StatusNone, fmt.Errorf(unknownStatusFormat, name)
}

// StatusPrecedence orders status codes strongest first.
type StatusPrecedence []StatusCode

// DefaultStatusPrecedence is used when configuration does not override it.
func DefaultStatusPrecedence() StatusPrecedence {
	return StatusPrecedence{
		StatusConflicted,
		StatusDeleted,
		StatusModified,
		StatusAdded,
		StatusRenamed,
		StatusUntracked,
		StatusIgnored,
		StatusClean,
	}
}

// ParseStatusPrecedence builds a precedence from status names. Codes missing
// from names keep their default relative order after the named ones.
func ParseStatusPrecedence(names []string) (StatusPrecedence, error) {
	if len(names) == 0 {
		return DefaultStatusPrecedence(), nil
	}
	seen := make(map[StatusCode]struct{}, len(names))
	precedence := make(StatusPrecedence, 0, len(statusNames)-1)
	for _, name := range names {
		code, parseError := ParseStatusCode(name)
		if parseError != nil {
			return nil, parseError
		}
		if _, duplicate := seen[code]; duplicate {
			continue
		}
		seen[code] = struct{}{}
		precedence = append(precedence, code)
	}
	for _, code := range DefaultStatusPrecedence() {
		if _, present := seen[code]; !present {
			precedence = append(precedence, code)
		}
	}
	return precedence, nil
}

// rank returns a higher number for stronger codes; StatusNone ranks zero.
func (precedence StatusPrecedence) rank(code StatusCode) int {
	if code == StatusNone {
		return 0
	}
	for index, candidate := range precedence {
		if candidate == code {
			return len(precedence) - index
		}
	}
	return 0
}

// Strongest returns whichever of the two codes ranks higher.
func (precedence StatusPrecedence) Strongest(first, second StatusCode) StatusCode {
	if precedence.rank(second) > precedence.rank(first) {
		return second
	}
	return first
}
