// Package evieerr collects the four diagnostic kinds the pipeline can raise
// — Scan, Parse, Resolution and Runtime — and the "[Kind Error]" tagging
// cmd/evie uses when reporting them on stderr (spec §6, §7).
package evieerr

import (
	"errors"
	"fmt"
	"strings"

	goscanner "go/scanner"
	gotoken "go/token"
)

// Error aliases go/scanner's Error: a single diagnostic at a source
// position. Reused rather than redeclared, following the teacher's own lead
// of building its scanner's error type on top of go/scanner
// (lang/scanner/scanner.go aliases scanner.Error the same way).
type Error = goscanner.Error

// ErrorList aliases go/scanner's ErrorList: an accumulator for every
// diagnostic raised while scanning or compiling one source. It can be
// sorted by position, and its Error() renders the first entry followed by a
// count of the remaining ones, which suits the synchronize-and-keep-going
// behavior the compiler wants for Scan and Parse diagnostics instead of
// stopping at the first one.
type ErrorList = goscanner.ErrorList

// Pos builds the go/token.Position evieerr.Error expects, carrying only a
// line number: evie tracks source lines, not columns or multiple files.
func Pos(line int) gotoken.Position { return gotoken.Position{Line: line} }

// Phase identifies which stage of the pipeline raised a diagnostic.
type Phase uint8

const (
	ScanPhase Phase = iota
	ParsePhase
	ResolutionPhase
	RuntimePhase
)

// Tag is the bracketed prefix cmd/evie prints ahead of a diagnostic's
// message, reused verbatim from the original implementation's
// evie_common::print_error.
func (p Phase) Tag() string {
	switch p {
	case ScanPhase:
		return "[Scan Error]"
	case ParsePhase:
		return "[Parse Error]"
	case ResolutionPhase:
		return "[Resolution Error]"
	case RuntimePhase:
		return "[Runtime Error]"
	default:
		return "[Error]"
	}
}

// PhaseError tags a plain error with the phase that produced it, so a
// reporter doesn't need a second channel to know which "[... Error]" prefix
// to print.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string { return e.Err.Error() }
func (e *PhaseError) Unwrap() error { return e.Err }

// Wrap tags err with phase, or returns nil if err is nil.
func Wrap(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Err: err}
}

// ReportString renders err the way cmd/evie writes it to stderr: the phase's
// tag, a space, then the error's own message (which, for a *RuntimeError,
// already includes its stack trace).
func ReportString(err error) string {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s %s", pe.Phase.Tag(), pe.Err.Error())
	}
	return fmt.Sprintf("[Error] %s", err.Error())
}

// Frame is one entry in a RuntimeError's call-stack trace.
type Frame struct {
	Line int
	// FuncName is the enclosing function's name, or "" for the top-level
	// script (matching value.ObjFunction.Name).
	FuncName string
}

// String renders a frame as "[line N] in <fn NAME>" (or "[line N] in
// script" for the top-level frame), the original implementation's format.
func (f Frame) String() string {
	if f.FuncName == "" {
		return fmt.Sprintf("[line %d] in script", f.Line)
	}
	return fmt.Sprintf("[line %d] in <fn %s>", f.Line, f.FuncName)
}

// RuntimeError is a single runtime fault plus the call stack active when it
// was raised, innermost frame first (spec §8: "call-stack lines in reverse
// frame order (innermost first)").
type RuntimeError struct {
	Message string
	Stack   []Frame
}

// NewRuntimeError formats a message and attaches stack as the trace to
// report alongside it. The VM supplies stack by walking its call frames
// from the top down at the moment the fault is detected.
func NewRuntimeError(stack []Frame, format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Stack: stack}
}

// Error renders the fault message followed by one "[line N] in <fn NAME>"
// line per stack frame, matching spec §8's runtime error contract.
func (e *RuntimeError) Error() string {
	if len(e.Stack) == 0 {
		return e.Message
	}
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Stack {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	return b.String()
}
