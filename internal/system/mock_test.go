package system

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"testing"
)

func TestMockFS_ReadWriteFile(t *testing.T) {
	mockFS := NewMockFS()

	content := []byte("[network]\nuse_udp = true\n")
	if err := mockFS.WriteFile("/etc/realm/config.toml", content, 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	data, err := mockFS.ReadFile("/etc/realm/config.toml")
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("ReadFile = %q, want %q", data, content)
	}
}

func TestMockFS_ReadFile_NotExists(t *testing.T) {
	mockFS := NewMockFS()

	if _, err := mockFS.ReadFile("/nonexistent"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
}

func TestMockFS_StatAndExists(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/usr/local/bin/realm", []byte("ELF"), 0755)

	info, err := mockFS.Stat("/usr/local/bin/realm")
	if err != nil {
		t.Fatalf("Stat error: %v", err)
	}
	if info.IsDir() || info.Name() != "realm" || info.Size() != 3 {
		t.Errorf("Stat = %+v", info)
	}

	dirInfo, err := mockFS.Stat("/usr/local/bin")
	if err != nil {
		t.Fatalf("Stat dir error: %v", err)
	}
	if !dirInfo.IsDir() {
		t.Error("parent should be a directory")
	}

	if !mockFS.Exists("/usr/local/bin/realm") {
		t.Error("file should exist")
	}
	if mockFS.Exists("/etc/init.d/realm") {
		t.Error("missing file should not exist")
	}
}

func TestMockFS_RenameKeepsMode(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/tmp/realm.partial", []byte("bin"), 0600)

	if err := mockFS.Rename("/tmp/realm.partial", "/usr/local/bin/realm"); err != nil {
		t.Fatalf("Rename error: %v", err)
	}
	if mockFS.Exists("/tmp/realm.partial") {
		t.Error("old path should be gone")
	}
	if mode, _ := mockFS.Mode("/usr/local/bin/realm"); mode != 0600 {
		t.Errorf("mode = %v, want 0600", mode)
	}

	if err := mockFS.Rename("/missing", "/x"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Rename missing error = %v", err)
	}
}

func TestMockFS_Remove(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/etc/init.d/realm", []byte("x"), 0755)

	if err := mockFS.Remove("/etc/init.d/realm"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if mockFS.Exists("/etc/init.d/realm") {
		t.Error("file should be removed")
	}
	if err := mockFS.Remove("/etc/init.d/realm"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("second Remove error = %v", err)
	}
}

func TestMockFS_ErrorInjection(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.WriteFileErr = errors.New("disk full")

	if err := mockFS.WriteFile("/x", nil, 0644); err == nil || err.Error() != "disk full" {
		t.Errorf("WriteFile error = %v, want injected error", err)
	}
}

func TestMockExecutor_LongestMatch(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("rc-service", []byte("generic"), nil)
	exec.AddResponse("rc-service realm status", []byte(" * status: started"), nil)
	exec.AddResponse("rc-service realm restart", nil, errors.New("restart failed"))

	out, err := exec.Execute(context.Background(), "rc-service", "realm", "status")
	if err != nil || string(out) != " * status: started" {
		t.Errorf("status = %q, %v", out, err)
	}

	if _, err := exec.Execute(context.Background(), "rc-service", "realm", "restart"); err == nil {
		t.Error("restart should fail")
	}

	out, _ = exec.Execute(context.Background(), "rc-service", "realm", "stop")
	if string(out) != "generic" {
		t.Errorf("stop = %q, want fallback to bare name", out)
	}

	want := []string{"rc-service realm status", "rc-service realm restart", "rc-service realm stop"}
	if got := exec.CommandLines(); !slices.Equal(got, want) {
		t.Errorf("CommandLines() = %v, want %v", got, want)
	}
}

func TestMockExecutor_DefaultResponse(t *testing.T) {
	exec := NewMockExecutor()
	exec.DefaultResponse = MockResponse{Output: []byte("default")}

	out, err := exec.Execute(context.Background(), "apk", "add")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if string(out) != "default" {
		t.Errorf("Output = %q, want %q", out, "default")
	}
}

func TestMockExecutor_InteractiveAndReplace(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("apk add", nil, errors.New("no network"))

	if err := exec.ExecuteInteractive(context.Background(), "apk", "add", "curl"); err == nil {
		t.Error("interactive apk add should return configured error")
	}
	cmd, ok := exec.LastCommand()
	if !ok || !cmd.Interactive {
		t.Errorf("LastCommand = %+v, %v", cmd, ok)
	}

	if err := exec.ReplaceProcess("tail", "-f", "/var/log/realm.log"); err == nil {
		t.Error("ReplaceProcess should report the call")
	}

	exec.Reset()
	if len(exec.Commands) != 0 {
		t.Errorf("Commands length after reset = %d, want 0", len(exec.Commands))
	}
}
