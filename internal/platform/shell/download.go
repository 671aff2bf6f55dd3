package shell

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/util/retry"
)

// HTTPClient is the client used for installer downloads.
var HTTPClient = &http.Client{Timeout: 2 * time.Minute}

// Download fetches url into a new temporary file and returns its path.
// Transient failures are retried; 4xx responses are not.
func Download(ctx context.Context, url string) (string, error) {
	f, err := os.CreateTemp("", "vsbootstrap-installer-*.sh")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	_ = f.Close()

	err = retry.WithExponentialBackoff(ctx, func() error {
		return fetch(ctx, url, path)
	}, retry.WithMaxRetries(3), retry.WithInitialDelay(2*time.Second))
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}

	clog.FromContext(ctx).Debug("downloaded installer", "url", url, "path", path)
	return path, nil
}

func fetch(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Fatal(err)
	}
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return retry.Fatal(fmt.Errorf("unexpected status %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return retry.Fatal(err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// RunScript downloads the installer at url and runs it with sh.
func RunScript(ctx context.Context, r Runner, url string, privileged bool, env []string, args ...string) error {
	path, err := Download(ctx, url)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	_, err = r.Run(ctx, Command{
		Name:       "sh",
		Args:       append([]string{path}, args...),
		Env:        env,
		Privileged: privileged,
	})
	return err
}
