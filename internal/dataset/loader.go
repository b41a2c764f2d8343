// Package dataset loads tabular datasets from local paths or remote URLs and
// derives their profiles.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// DefaultMaxBytes bounds how much of a dataset is read.
const DefaultMaxBytes = 64 << 20

// Loader loads a dataset source and returns its profile.
type Loader interface {
	Load(ctx context.Context, source string) (*domain.DatasetProfile, error)
}

// Origin labels for a source.
const (
	OriginLocal  = "local"
	OriginRemote = "remote"
)

// Builder is the default Loader. It reads local files directly and fetches
// http(s) sources with a bounded timeout.
type Builder struct {
	client   *http.Client
	maxBytes int64
}

// NewBuilder creates a Builder whose remote fetches time out after timeout.
func NewBuilder(timeout time.Duration) *Builder {
	return &Builder{
		client:   &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxBytes,
	}
}

// NewBuilderWithClient creates a Builder using a custom HTTP client.
func NewBuilderWithClient(client *http.Client) *Builder {
	return &Builder{client: client, maxBytes: DefaultMaxBytes}
}

// Origin returns OriginRemote for http(s) sources and OriginLocal otherwise.
func Origin(source string) string {
	if IsRemote(source) {
		return OriginRemote
	}
	return OriginLocal
}

// IsRemote reports whether source uses the http or https scheme.
func IsRemote(source string) bool {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		lower := strings.ToLower(strings.TrimSpace(source))
		return strings.HasPrefix(lower, "http:") || strings.HasPrefix(lower, "https:")
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Load implements Loader.
func (b *Builder) Load(ctx context.Context, source string) (*domain.DatasetProfile, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, domain.NewError(domain.KindInvalidSource, "dataset source is required", nil)
	}

	var (
		data []byte
		err  error
	)
	if IsRemote(source) {
		data, err = b.fetch(ctx, source)
	} else {
		data, err = b.readFile(source)
	}
	if err != nil {
		return nil, err
	}

	profile, err := BuildProfile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to profile %s: %w", source, err)
	}
	return profile, nil
}

func (b *Builder) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewError(domain.KindNotFound, fmt.Sprintf("dataset %s not found", path), err)
		}
		return nil, domain.NewError(domain.KindMalformedData, fmt.Sprintf("failed to open dataset %s", path), err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, b.maxBytes))
	if err != nil {
		return nil, domain.NewError(domain.KindMalformedData, fmt.Sprintf("failed to read dataset %s", path), err)
	}
	return data, nil
}

func (b *Builder) fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.NewError(domain.KindInvalidSource, fmt.Sprintf("invalid dataset URL %q", source), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidSource, fmt.Sprintf("invalid dataset URL %q", source), err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, classifyFetchError(ctx, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewRemoteHTTPError(resp.StatusCode, source)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, domain.NewError(domain.KindRemoteTimeout, fmt.Sprintf("timed out reading %s", source), err)
		}
		return nil, domain.NewError(domain.KindMalformedData, fmt.Sprintf("failed to read body of %s", source), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, domain.NewError(domain.KindMalformedData, fmt.Sprintf("empty response from %s", source), nil)
	}
	return data, nil
}

// classifyFetchError maps transport failures onto the error taxonomy. Name
// resolution failures count as unreachable even when the lookup timed out.
func classifyFetchError(ctx context.Context, source string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("fetch of %s cancelled: %w", source, ctx.Err())
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.NewError(domain.KindRemoteUnavailable, fmt.Sprintf("cannot resolve host for %s", source), err)
	}
	if isTimeout(err) {
		return domain.NewError(domain.KindRemoteTimeout, fmt.Sprintf("timed out fetching %s", source), err)
	}
	return domain.NewError(domain.KindRemoteUnavailable, fmt.Sprintf("cannot reach %s", source), err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
