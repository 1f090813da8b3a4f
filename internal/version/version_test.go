package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestColoredPlain(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	tests := []string{"0.1.0", "1.2.3-rc.1+build.123", "2.0.0-alpha", "weird"}
	for _, v := range tests {
		Version = v
		if got := Colored(false); got != v {
			t.Errorf("Colored(false) = %q, want %q", got, v)
		}
	}
}

func TestColoredEscapes(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-dev"
	got := Colored(true)
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-dev") {
		t.Fatalf("Colored(true) = %q", got)
	}
}

func TestWrite(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	var buf bytes.Buffer
	GitCommit, BuildDate = "", ""
	Write(&buf, false)
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("optional fields printed:\n%s", buf.String())
	}

	buf.Reset()
	GitCommit, BuildDate = "abc123", "2026-01-15"
	Write(&buf, false)
	for _, want := range []string{"formula " + Version, "commit: abc123", "built:  2026-01-15"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in\n%s", want, buf.String())
		}
	}
}
