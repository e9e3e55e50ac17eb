package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMainExitStatus(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.scm")
	bad := filepath.Join(dir, "bad.scm")
	os.WriteFile(good, []byte("(define (sq x) (* x x))\n(sq 4)\n"), 0o644)
	os.WriteFile(bad, []byte("(car '())\n"), 0o644)

	for _, tc := range []struct {
		name string
		args []string
		want int
	}{
		{"script", []string{good}, 0},
		{"expression", []string{"-e", "(+ 1 2)"}, 0},
		{"failing script", []string{bad}, 1},
		{"failing expression", []string{"-e", "(car 1)"}, 1},
		{"missing file", []string{filepath.Join(dir, "none.scm")}, 1},
		{"unknown flag", []string{"-no-such-flag"}, 2},
		{"help", []string{"-h"}, 0},
		{"small heap", []string{"-heap", "4194304", "-unchecked", good}, 0},
	} {
		if got := Main(tc.args); got != tc.want {
			t.Errorf("%s: exit status %d, want %d", tc.name, got, tc.want)
		}
	}
}
