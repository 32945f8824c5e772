// Package fetch downloads a single remote file to a path anchored at a base
// directory. A fetch is one blocking GET with no retries, no timeout and no
// content verification, and it never fails at the call boundary: the outcome
// is reported through Result.Status.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/fetch_nodes/internal/fetch/progress"
	"github.com/italolelis/fetch_nodes/internal/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultURL        = "https://example.com/file.txt"
	DefaultOutputPath = "output/file.txt"

	StatusExists = "File already exists"
	StatusSaved  = "File fetched and saved successfully"

	dirPerm  = 0755
	filePerm = 0644

	progressInterval = 10 * 1024 * 1024 // 10MB
)

// Outcome classifies a Result.
type Outcome string

const (
	OutcomeExists Outcome = "exists"
	OutcomeSaved  Outcome = "saved"
	OutcomeFailed Outcome = "failed"
)

// Request describes one fetch.
type Request struct {
	URL        string
	OutputPath string
	Overwrite  bool
}

// Result is the outcome of a fetch. Status is the human readable payload
// handed back to the caller; the remaining fields are for Go callers.
type Result struct {
	Status  string
	Outcome Outcome
	Path    string
	Bytes   int64
	Err     error
}

// Fetcher resolves output paths against a fixed base directory.
type Fetcher struct {
	baseDir string
	client  *http.Client
}

// NewHTTPClient returns a client whose outbound requests are traced. No
// timeout is set.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// NewFetcher returns a Fetcher anchored at baseDir. A nil client uses NewHTTPClient.
func NewFetcher(baseDir string, client *http.Client) *Fetcher {
	if client == nil {
		client = NewHTTPClient()
	}

	return &Fetcher{baseDir: baseDir, client: client}
}

// BaseDir returns the anchor directory.
func (f *Fetcher) BaseDir() string {
	return f.baseDir
}

// ResolvePath anchors a relative outputPath at baseDir. Absolute paths are
// returned cleaned but otherwise unchanged.
func ResolvePath(baseDir, outputPath string) string {
	if filepath.IsAbs(outputPath) {
		return filepath.Clean(outputPath)
	}

	return filepath.Join(baseDir, outputPath)
}

// Fetch downloads req.URL into the resolved output path unless the file
// already exists and req.Overwrite is false.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (res Result) {
	target := ResolvePath(f.baseDir, req.OutputPath)
	logger := logctx.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			res = failed(target, fmt.Errorf("unexpected panic: %v", r))
		}
	}()

	if !req.Overwrite && exists(target) {
		logger.DebugContext(ctx, "file already exists, skipping fetch", "target", target)

		return Result{Status: StatusExists, Outcome: OutcomeExists, Path: target}
	}

	logger.InfoContext(ctx, "fetching file", "url", req.URL, "target", target)

	body, err := f.get(ctx, req.URL)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch file", "url", req.URL, "err", err)

		return failed(target, err)
	}

	if err := writeFile(target, body); err != nil {
		logger.ErrorContext(ctx, "failed to save file", "target", target, "err", err)

		return failed(target, err)
	}

	logger.InfoContext(ctx, "fetched and saved file", "target", target, "size", humanize.Bytes(uint64(len(body))))

	return Result{Status: StatusSaved, Outcome: OutcomeSaved, Path: target, Bytes: int64(len(body))}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	logger := logctx.LoggerFromContext(ctx)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", url, err)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Operation: "request", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(url, resp)
	}

	pr := progress.NewReader(resp.Body, resp.ContentLength, progressInterval, func(read, total int64) {
		if total > 0 {
			logger.DebugContext(ctx, "fetch progress",
				"url", url,
				"downloaded", humanize.Bytes(uint64(read)),
				"total", humanize.Bytes(uint64(total)),
				"percent", humanize.FtoaWithDigits(float64(read)*100/float64(total), 2))
		} else {
			logger.DebugContext(ctx, "fetch progress", "url", url, "downloaded", humanize.Bytes(uint64(read)))
		}
	})

	body, err := io.ReadAll(pr)
	if err != nil {
		return nil, &NetworkError{Operation: "read_body", URL: url, Err: err}
	}

	return body, nil
}

func writeFile(target string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return &WriteError{Path: target, Err: err}
	}

	if err := os.WriteFile(target, body, filePerm); err != nil {
		return &WriteError{Path: target, Err: err}
	}

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func failed(target string, err error) Result {
	return Result{
		Status:  "Error: " + err.Error(),
		Outcome: OutcomeFailed,
		Path:    target,
		Err:     err,
	}
}
