// Package release resolves and downloads realm release archives.
package release

import (
	"archive/tar"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
)

// BinaryName is the archive entry extracted by Download.
const BinaryName = "realm"

// DefaultMaxBytes caps the size of a downloaded archive.
const DefaultMaxBytes = 64 * 1024 * 1024

// Errors.
var (
	ErrUnsupportedArch = errors.New("unsupported architecture")
	ErrBinaryNotFound  = errors.New("realm binary not found in archive")
	ErrTooLarge        = errors.New("download exceeds size limit")
	ErrNoTag           = errors.New("release has no tag_name")
)

// archNames maps Go architectures to the target triples used in release assets.
var archNames = map[string]string{
	"amd64": "x86_64",
	"arm64": "aarch64",
}

// Arch returns the asset architecture for goarch, or override when set.
func Arch(goarch, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if a, ok := archNames[goarch]; ok {
		return a, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedArch, goarch)
}

// HostArch returns the asset architecture of the running host.
func HostArch(override string) (string, error) {
	return Arch(runtime.GOARCH, override)
}

// AssetURL returns the download URL of the musl release archive.
func AssetURL(mirror, version, arch string) string {
	return fmt.Sprintf("%s/%s/realm-%s-unknown-linux-musl.tar.gz",
		strings.TrimRight(mirror, "/"), version, arch)
}

// Fetcher talks to the release host.
type Fetcher struct {
	httpClient *http.Client
	apiURL     string
	fallback   string
	token      string
	maxBytes   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// WithMaxBytes caps the archive size.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithToken authenticates API requests.
func WithToken(token string) Option {
	return func(f *Fetcher) {
		f.token = token
	}
}

// NewFetcher creates a fetcher that queries apiURL for the latest release
// and falls back to the pinned version when that fails.
// It reads GITHUB_TOKEN from the environment for authenticated requests.
func NewFetcher(apiURL, fallback string, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiURL:     apiURL,
		fallback:   fallback,
		token:      os.Getenv("GITHUB_TOKEN"),
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolution is the outcome of ResolveVersion.
type Resolution struct {
	Version      string
	UsedFallback bool
	Err          error // why the fallback was used
}

type latestRelease struct {
	TagName string `json:"tag_name"`
}

// ResolveVersion returns the latest release tag. Any failure yields the
// pinned fallback version; there are no retries.
func (f *Fetcher) ResolveVersion(ctx context.Context) Resolution {
	tag, err := f.latestTag(ctx)
	if err != nil {
		logging.Debug("latest release lookup failed", "url", f.apiURL, "error", err)
		return Resolution{Version: f.fallback, UsedFallback: true, Err: err}
	}
	return Resolution{Version: tag}
}

func (f *Fetcher) latestTag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var rel latestRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return "", fmt.Errorf("failed to decode release: %w", err)
	}
	if rel.TagName == "" {
		return "", ErrNoTag
	}
	return rel.TagName, nil
}

// Download fetches the tar.gz archive at url and installs its realm entry at
// dest with mode 0755. dest is replaced atomically.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	logging.Debug("downloading release", "url", url, "dest", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ctlerrors.DownloadFailed(url, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return ctlerrors.DownloadFailed(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ctlerrors.DownloadFailed(url, fmt.Errorf("unexpected status %s", resp.Status))
	}
	if resp.ContentLength > f.maxBytes {
		return ctlerrors.DownloadFailed(url, ErrTooLarge)
	}

	body := &limitedReader{r: resp.Body, n: f.maxBytes}
	if err := extractBinary(body, dest); err != nil {
		var ctlErr *ctlerrors.CtlError
		if errors.As(err, &ctlErr) {
			return err
		}
		return ctlerrors.DownloadFailed(url, err)
	}
	return nil
}

// extractBinary streams a gzip-compressed tarball and writes the realm
// entry to dest via a temp file in the same directory.
func extractBinary(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return ErrBinaryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Base(hdr.Name) != BinaryName {
			continue
		}
		return writeExecutable(tr, dest)
	}
}

func writeExecutable(r io.Reader, dest string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ctlerrors.IOError("create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return ctlerrors.IOError("create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to extract %s: %w", BinaryName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ctlerrors.IOError("sync "+tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return ctlerrors.IOError("close "+tmpName, err)
	}
	if err := os.Chmod(tmpName, 0755); err != nil {
		return ctlerrors.IOError("chmod "+tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return ctlerrors.IOError("rename "+dest, err)
	}
	return nil
}

// limitedReader fails with ErrTooLarge instead of truncating silently.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		var probe [1]byte
		if n, _ := l.r.Read(probe[:]); n == 0 {
			return 0, io.EOF
		}
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err
}
