package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadBuildInfo(t *testing.T) {
	t.Parallel()

	info := readBuildInfo()
	if info.Version == "" || info.Commit == "" || info.Date == "" || info.Go == "" {
		t.Errorf("build info has empty fields: %+v", info)
	}
	if len(info.Commit) > 7 {
		t.Errorf("commit should be shortened, got %q", info.Commit)
	}
	if getVersion() != info.Version {
		t.Errorf("getVersion() = %q, want %q", getVersion(), info.Version)
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"poketl version", "commit:", "built:", "go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
