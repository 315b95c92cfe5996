package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		json      bool
		log       func()
		want      string
		wantEmpty bool
	}{
		{"text info", false, false, func() { Info("rule appended", "index", 3) }, "index=3", false},
		{"text warn", false, false, func() { Warn("restart failed", "service", "realm") }, "service=realm", false},
		{"text error", false, false, func() { Error("write failed", "path", "/etc/realm/config.toml") }, "write failed", false},
		{"debug hidden", false, false, func() { Debug("exec", "cmd", "rc-service") }, "", true},
		{"debug verbose", true, false, func() { Debug("exec", "cmd", "rc-service") }, "cmd=rc-service", false},
		{"json", false, true, func() { Info("rule appended", "index", 3) }, `"index":3`, false},
		{"with attrs", false, false, func() { With("component", "installer").Info("downloading") }, "component=installer", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Setup(tt.verbose, tt.json, &buf)
			defer Setup(false, false, nil)

			if Verbose != tt.verbose {
				t.Errorf("Verbose = %v, want %v", Verbose, tt.verbose)
			}

			tt.log()
			out := buf.String()
			if tt.wantEmpty {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q should contain %q", out, tt.want)
			}
		})
	}
}

func TestSetup_JSONIsParseable(t *testing.T) {
	var buf bytes.Buffer
	Setup(true, true, &buf)
	defer Setup(false, false, nil)

	Debug("downloaded release", "version", "v2.7.0")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not one JSON record: %v\n%s", err, buf.String())
	}
	if record["msg"] != "downloaded release" || record["version"] != "v2.7.0" || record["level"] != "DEBUG" {
		t.Errorf("record = %v", record)
	}
}

func TestSetup_NilWriter(t *testing.T) {
	Setup(false, false, nil)
	if Logger == nil {
		t.Error("Logger should fall back to stderr")
	}
}

func TestUserOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	origOut, origErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	defer func() { Stdout, Stderr = origOut, origErr }()

	UserInfo("info %d", 1)
	UserSuccess("done")
	UserWarning("careful %s", "now")
	UserError("failed")

	if got := out.String(); got != "ℹ info 1\n✓ done\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); got != "⚠ careful now\n✗ failed\n" {
		t.Errorf("stderr = %q", got)
	}
}
