package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CompileError is a single diagnostic produced by the compiler, formatted as
// `[line N] Error at '<lexeme>': <msg>` (or "at end" in place of the lexeme
// for an EOF token, or no "at" suffix at all for a synthetic/internal
// error).
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string { return e.Msg }

// ErrorList collects diagnostics across an entire compile, rather than
// failing at the first one, mirroring the collect-then-sort idiom used
// throughout the teacher codebase's own diagnostics.
type ErrorList struct {
	errs []*CompileError
}

func (l *ErrorList) Add(line int, msg string) {
	l.errs = append(l.errs, &CompileError{Line: line, Msg: msg})
}

func (l *ErrorList) Len() int { return len(l.errs) }

func (l *ErrorList) Sort() {
	sort.SliceStable(l.errs, func(i, j int) bool { return l.errs[i].Line < l.errs[j].Line })
}

// Err returns nil if the list is empty, or an error aggregating every
// diagnostic (one per line) otherwise.
func (l *ErrorList) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	var sb strings.Builder
	for i, e := range l.errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Msg)
	}
	return fmt.Errorf("%s", sb.String())
}
