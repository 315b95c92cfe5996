package release

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/klauspost/compress/gzip"

	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
)

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range entries {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// noisyArchive returns an archive whose realm entry does not compress,
// so the archive is at least size bytes on the wire.
func noisyArchive(t *testing.T, size int) []byte {
	t.Helper()
	body := make([]byte, size)
	if _, err := rand.Read(body); err != nil {
		t.Fatal(err)
	}
	return buildArchive(t, map[string]string{"realm": string(body)})
}

func TestArch(t *testing.T) {
	tests := []struct {
		goarch   string
		override string
		want     string
		wantErr  bool
	}{
		{"amd64", "", "x86_64", false},
		{"arm64", "", "aarch64", false},
		{"riscv64", "", "", true},
		{"riscv64", "riscv64gc", "riscv64gc", false},
	}
	for _, tt := range tests {
		got, err := Arch(tt.goarch, tt.override)
		if (err != nil) != tt.wantErr {
			t.Errorf("Arch(%q, %q) error = %v, wantErr %v", tt.goarch, tt.override, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Arch(%q, %q) = %q, want %q", tt.goarch, tt.override, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedArch) {
			t.Errorf("error should wrap ErrUnsupportedArch: %v", err)
		}
	}
}

func TestAssetURL(t *testing.T) {
	got := AssetURL("https://github.com/zhboner/realm/releases/download/", "v2.7.0", "x86_64")
	want := "https://github.com/zhboner/realm/releases/download/v2.7.0/realm-x86_64-unknown-linux-musl.tar.gz"
	if got != want {
		t.Errorf("AssetURL = %q, want %q", got, want)
	}
}

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.HandlerFunc
		want         string
		wantFallback bool
	}{
		{
			name: "latest",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"tag_name":"v2.9.1","name":"realm"}`)
			},
			want: "v2.9.1",
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			want:         "v2.7.0",
			wantFallback: true,
		},
		{
			name: "empty tag",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{}`)
			},
			want:         "v2.7.0",
			wantFallback: true,
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>`)
			},
			want:         "v2.7.0",
			wantFallback: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f := NewFetcher(srv.URL, "v2.7.0", WithToken(""))
			res := f.ResolveVersion(context.Background())
			if res.Version != tt.want {
				t.Errorf("Version = %q, want %q", res.Version, tt.want)
			}
			if res.UsedFallback != tt.wantFallback {
				t.Errorf("UsedFallback = %v, want %v", res.UsedFallback, tt.wantFallback)
			}
			if tt.wantFallback && res.Err == nil {
				t.Error("fallback should carry the cause")
			}
		})
	}
}

func TestResolveVersion_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewFetcher(url, "v2.7.0").ResolveVersion(context.Background())
	if !res.UsedFallback || res.Version != "v2.7.0" {
		t.Errorf("Resolution = %+v, want fallback", res)
	}
}

func TestDownload(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"README.md": "docs",
		"realm":     "#!/bin/sh\necho realm\n",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "bin", "realm")
	if err := NewFetcher("", "v2.7.0").Download(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("Download error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(data) != "#!/bin/sh\necho realm\n" {
		t.Errorf("binary = %q", data)
	}
	info, _ := os.Stat(dest)
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestDownload_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		maxBytes int64
		wantErr  error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "not gzip",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "plain text")
			},
		},
		{
			name: "missing binary",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write(buildArchive(t, map[string]string{"LICENSE": "mit"}))
			},
			wantErr: ErrBinaryNotFound,
		},
		{
			name: "too large streamed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				// Flushing first forces a chunked response without Content-Length.
				w.(http.Flusher).Flush()
				w.Write(noisyArchive(t, 64*1024))
			},
			maxBytes: 4096,
			wantErr:  ErrTooLarge,
		},
		{
			name: "too large declared",
			handler: func(w http.ResponseWriter, r *http.Request) {
				body := noisyArchive(t, 8192)
				w.Header().Set("Content-Length", strconv.Itoa(len(body)))
				w.Write(body)
			},
			maxBytes: 4096,
			wantErr:  ErrTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var opts []Option
			if tt.maxBytes > 0 {
				opts = append(opts, WithMaxBytes(tt.maxBytes))
			}
			dest := filepath.Join(t.TempDir(), "realm")
			err := NewFetcher("", "v2.7.0", opts...).Download(context.Background(), srv.URL, dest)
			if err == nil {
				t.Fatal("expected error")
			}
			if ctlerrors.GetExitCode(err) != ctlerrors.ExitDownloadFailed {
				t.Errorf("exit code = %d, want %d", ctlerrors.GetExitCode(err), ctlerrors.ExitDownloadFailed)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
				t.Error("dest should not exist after a failed download")
			}
		})
	}
}
