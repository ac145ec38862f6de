package artifact

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/internal/logging"
)

// DefaultDir is where downloads go when neither the call nor the [Downloader] names a
// directory.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, logging.AppName, "downloads")
}

// Downloader fetches files over HTTP, skipping transfers for files already present.
type Downloader struct {
	// Client defaults to [NewSecureHTTPClient].
	Client *http.Client
	// Dir defaults to [DefaultDir].
	Dir string
	// Quiet disables progress output.
	Quiet bool
}

// Download fetches rawurl into destDir and returns the local path.
//
// The file is named after the response's Content-Disposition attachment filename, or
// the last segment of the url path. In quick mode an existing file named after the url
// is returned without any request. Otherwise a HEAD request learns the content length:
// an existing file of exactly that size is kept, anything else is fetched again and
// its size checked against the GET response, failing with [dotfiles.ErrIntegrityMismatch].
//
// Sizes are the only integrity signal; a corrupt file of the right size passes.
// When the server sends no length the file is always fetched and never checked.
func (d *Downloader) Download(ctx context.Context, rawurl, destDir string, quick bool) (_ string, err error) {
	logger := logging.GetLogger("artifact.download")

	dir := d.dir(destDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory %s: %w", dir, err)
	}

	fallback, err := urlName(rawurl)
	if err != nil {
		return "", err
	}

	if quick {
		dest := filepath.Join(dir, fallback)
		if _, err := os.Stat(dest); err == nil {
			logger.Debug().Str("path", dest).Msg("present, quick mode")
			return dest, nil
		}
	}

	if !d.Quiet {
		dotfiles.LogDetail(fmt.Sprintf("downloading %s", rawurl))
		defer dotfiles.LogOutcome(time.Now(), &err)
	}

	head, err := d.request(ctx, http.MethodHead, rawurl)
	if err != nil {
		return "", err
	}
	head.Body.Close()

	dest := filepath.Join(dir, filename(head.Header, fallback))

	if sizeMatches(dest, head.ContentLength) {
		logger.Info().Str("path", dest).Int64("size", head.ContentLength).Msg("already downloaded")
		return dest, nil
	}

	if err := d.fetch(ctx, rawurl, dest); err != nil {
		return "", err
	}

	logger.Info().Str("url", rawurl).Str("path", dest).Msg("downloaded")
	return dest, nil
}

// fetch streams rawurl into dest through a partial file, renamed once complete.
func (d *Downloader) fetch(ctx context.Context, rawurl, dest string) error {
	resp, err := d.request(ctx, http.MethodGet, rawurl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	partial := dest + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", partial, err)
	}
	defer os.Remove(partial)

	data, finish := d.progress(resp.Body, resp.ContentLength)
	_, err = io.Copy(out, data)
	finish()

	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to copy data to file %s: %w", partial, err)
	}

	if resp.ContentLength >= 0 && !sizeMatches(partial, resp.ContentLength) {
		var size int64
		if info, err := os.Stat(partial); err == nil {
			size = info.Size()
		}
		return fmt.Errorf(
			"%w: %s has %d bytes, server announced %d",
			dotfiles.ErrIntegrityMismatch, rawurl, size, resp.ContentLength,
		)
	}

	if err := os.Rename(partial, dest); err != nil {
		return fmt.Errorf("failed to move download into %s: %w", dest, err)
	}
	return nil
}

func (d *Downloader) request(ctx context.Context, method, rawurl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid download url %s: %w", rawurl, err)
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawurl, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("received unexpected response when downloading %s: http%d", rawurl, resp.StatusCode)
	}

	return resp, nil
}

func (d *Downloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return NewSecureHTTPClient()
}

func (d *Downloader) dir(destDir string) string {
	switch {
	case destDir != "":
		return destDir
	case d.Dir != "":
		return d.Dir
	default:
		return DefaultDir()
	}
}

// progress wraps an io.Reader to display a progress bar when running in a terminal.
// Returns the wrapped reader and a function to finalize the progress display.
func (d *Downloader) progress(reader io.Reader, size int64) (io.Reader, func()) {
	if d.Quiet || (!isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())) {
		return reader, func() {}
	}

	bar := pb.
		New64(size).
		SetTemplate(
			pb.ProgressBarTemplate(
				color.New(color.FgHiBlack).Sprint(
					`   └ {{counters . }}` +
						` {{bar . "[" "=" ">" " " "]" }} {{percent . }}` +
						` {{speed . }}`,
				),
			),
		).
		SetRefreshRate(time.Second / 60).
		SetMaxWidth(100).
		Start()

	return bar.NewProxyReader(reader), func() { bar.Finish() }
}

// filename picks the attachment filename from a Content-Disposition header, or fallback.
func filename(header http.Header, fallback string) string {
	disposition := header.Get("Content-Disposition")
	if disposition == "" {
		return fallback
	}

	kind, params, err := mime.ParseMediaType(disposition)
	if err != nil || kind != "attachment" {
		return fallback
	}

	name := filepath.Base(params["filename"])
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}

// urlName is the last segment of the url path.
func urlName(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("invalid download url %s: %w", rawurl, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("invalid download url %s: no file name in path", rawurl)
	}
	return name, nil
}

// sizeMatches reports whether path exists with exactly size bytes. Unknown sizes
// never match.
func sizeMatches(path string, size int64) bool {
	if size < 0 {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() == size
}
