// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package cgerr defines the typed error kinds used across the writer and
// reader handles. There are no
// exceptions in the API surface: every fallible call returns an error
// whose Kind a caller can inspect with errors.As.
package cgerr

import "fmt"

// Kind classifies a failure into a stable, inspectable taxonomy.
type Kind int

const (
	// MalformedInput covers a bad hyperedge line or token parse failure.
	MalformedInput Kind = iota
	// StructuralFile covers a magic mismatch, VByte overflow, or
	// inconsistent length field while reading a compressed file.
	StructuralFile
	// CapacityExceeded covers rank > LIMIT_MAX_RANK or a command-list
	// overflow on the CLI surface.
	CapacityExceeded
	// AllocationFailure covers any memory request that could not be
	// satisfied; Go's runtime surfaces this as a panic, so callers in this
	// module only construct it when deliberately bounding a size before
	// allocating.
	AllocationFailure
	// StateViolation covers add_edge after compress, write before
	// compress, or an iterator used after Finish.
	StateViolation
	// NotFound is not itself an error kind surfaced to callers - a
	// pattern yielding no edges is success with zero results - but is
	// kept here so callers have a name for the boundary.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case StructuralFile:
		return "structural file error"
	case CapacityExceeded:
		return "capacity exceeded"
	case AllocationFailure:
		return "allocation failure"
	case StateViolation:
		return "state violation"
	case NotFound:
		return "not found"
	default:
		return "unknown error kind"
	}
}

// Error is a typed error carrying a Kind and a human-readable detail.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// New constructs an *Error of the given kind.
func New(k Kind, detail string) error {
	return &Error{Kind: k, Detail: detail}
}

// Newf constructs an *Error with a formatted detail.
func Newf(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Detail: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of kind k.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}
