package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
)

// HTTPStatusError is returned when a remote source answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}

// IsRemote reports whether source is an http(s) URL rather than a local path.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// withLocalFile runs fn with a local path for source. Remote sources are
// downloaded into a private temporary file that is removed once fn returns,
// whatever the outcome.
func (g *Gate) withLocalFile(ctx context.Context, source string, fn func(path string) error) error {
	if !IsRemote(source) {
		return fn(source)
	}

	tmp, err := os.CreateTemp(g.TempDir, "ttsprep-audio-*")
	if err != nil {
		return err
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			g.logger().Warn("remove temp audio file", slog.String("path", path), slog.String("error", rmErr.Error()))
		}
	}()

	n, err := g.download(ctx, source, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	g.logger().Debug("fetched remote audio",
		slog.String("url", source),
		slog.String("path", path),
		slog.Int64("bytes", n),
	)

	return fn(path)
}

func (g *Gate) download(ctx context.Context, source string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return 0, err
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &HTTPStatusError{URL: source, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.Copy(w, resp.Body)
}
