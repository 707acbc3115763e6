package vm

import (
	"fmt"
	"strings"
)

// StackFrame is one entry of a RuntimeError's stack trace (spec §7).
type StackFrame struct {
	FunctionName string
	Line         int
}

// RuntimeError is the fixed-shape {message, stack_trace} error the VM
// raises for type errors, division by zero, missing fields, failed
// `check`s, and native-function failures (spec §4.4/§7).
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.StackTrace {
		b.WriteString("\n  at ")
		b.WriteString(f.FunctionName)
		if f.Line > 0 {
			b.WriteString(" (line ")
			b.WriteString(itoaSmall(f.Line))
			b.WriteString(")")
		}
	}
	return b.String()
}

func (m *Machine) newError(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), StackTrace: m.captureStack()}
}

// ExitError unwinds the VM in response to exit() (spec §6.3): the host
// embedding is expected to catch it at the call to Run and translate it to
// a process exit code rather than reporting it as a runtime failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit(%d)", e.Code)
}

func (m *Machine) captureStack() []StackFrame {
	trace := make([]StackFrame, 0, len(m.frames))
	for i := len(m.frames) - 1; i >= 0; i-- {
		f := m.frames[i]
		name := "<anonymous>"
		line := 0
		if f.Closure != nil && f.Closure.Proto != nil {
			name = f.Closure.Proto.Name
			if f.IP < len(f.Closure.Proto.Lines) {
				line = f.Closure.Proto.Lines[f.IP]
			}
		}
		trace = append(trace, StackFrame{FunctionName: name, Line: line})
	}
	return trace
}

