// Package stacktrace trims a runtime/debug stack down to this module's frames
// for panic logs.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame under
// an internal/ directory, innermost first. Frames of this package are skipped.
func InternalPaths(stack []byte) []string {
	var out []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := sc.Text()
		// File lines are tab-indented: "\t/abs/path/file.go:123 +0x1d".
		if !strings.HasPrefix(line, "\t") {
			continue
		}
		loc, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		i := strings.Index(loc, marker)
		if i < 0 || !strings.Contains(loc, ".go:") || strings.Contains(loc, "/pkg/stacktrace/") {
			continue
		}
		out = append(out, loc[i+1:])
	}

	return out
}
