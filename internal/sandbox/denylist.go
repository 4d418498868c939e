package sandbox

import (
	"errors"
	"regexp"
)

// ErrRejected indicates custom code that contains a restricted construct.
var ErrRejected = errors.New("sandbox: restricted operation")

// RejectedError names the first restricted marker found in custom code.
type RejectedError struct {
	Marker string
}

func (e *RejectedError) Error() string {
	return "sandbox: restricted operation: " + e.Marker
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

type marker struct {
	name string
	re   *regexp.Regexp
}

// Checked in order; the first hit is reported.
var denylist = []marker{
	{"import", regexp.MustCompile(`\bimport\b`)},
	{"package", regexp.MustCompile(`\bpackage\b`)},
	{"__import__", regexp.MustCompile(`__import__`)},
	{"eval", regexp.MustCompile(`\beval\b`)},
	{"exec", regexp.MustCompile(`\bexec\b`)},
	{"compile", regexp.MustCompile(`\bcompile\s*\(`)},
	{"open(", regexp.MustCompile(`\bopen\s*\(`)},
	{"subprocess", regexp.MustCompile(`\bsubprocess\b`)},
	{"os.", regexp.MustCompile(`\bos\s*\.`)},
	{"sys.", regexp.MustCompile(`\bsys\s*\.`)},
	{"syscall", regexp.MustCompile(`\bsyscall\b`)},
	{"unsafe", regexp.MustCompile(`\bunsafe\b`)},
	{"reflect", regexp.MustCompile(`\breflect\b`)},
	{"interp", regexp.MustCompile(`\binterp\b`)},
	{"runtime.", regexp.MustCompile(`\bruntime\s*\.`)},
	{"go statement", regexp.MustCompile(`(^|[\s;{}])go\s+(func\b|[A-Za-z_][\w.]*\s*\()`)},
	{"globals", regexp.MustCompile(`\b(globals|locals|getattr|setattr)\s*\(`)},
	{"dunder", regexp.MustCompile(`__(builtins|class|subclasses|globals|code)__`)},
}

// Check scans code for restricted constructs. It returns a *RejectedError for
// the first marker found, or nil.
func Check(code string) error {
	for _, m := range denylist {
		if m.re.MatchString(code) {
			return &RejectedError{Marker: m.name}
		}
	}
	return nil
}
