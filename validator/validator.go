// Package validator provides input validation for the application
package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInteger is returned when a parameter is not an integer
	ErrInvalidInteger = errors.New("must be an integer")
	// ErrOutOfRange is returned when an integer parameter is outside its bounds
	ErrOutOfRange = errors.New("out of range")
	// ErrInvalidBool is returned when a parameter is not a boolean
	ErrInvalidBool = errors.New("must be true or false")
	// ErrEmptyIDs is returned when a batch carries no identifiers
	ErrEmptyIDs = errors.New("book_ids must not be empty")
	// ErrEmptyString is returned when a string parameter is empty
	ErrEmptyString = errors.New("string cannot be empty")
)

// IntInRange parses raw as an integer within [lo, hi]; an empty raw yields def
func IntInRange(name, raw string, def, lo, hi int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid '%s' parameter: %w", name, ErrInvalidInteger)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("'%s' must be between %d and %d: %w", name, lo, hi, ErrOutOfRange)
	}
	return n, nil
}

// OptionalBool parses raw as a boolean; an empty raw yields nil
func OptionalBool(name, raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' parameter: %w", name, ErrInvalidBool)
	}
	return &b, nil
}

// SplitList splits a comma separated parameter, dropping empty items
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateIDs validates that a batch names at least one identifier
func ValidateIDs(ids []string) error {
	if len(ids) == 0 {
		return ErrEmptyIDs
	}
	return nil
}

// ValidateNonEmpty validates that a string is not empty
func ValidateNonEmpty(s string) error {
	if s == "" {
		return ErrEmptyString
	}
	return nil
}
