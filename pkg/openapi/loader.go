package openapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem enables SourceKindFS sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL sources with the given client.
func WithHTTPClient(client *resty.Client) LoaderOption {
	return func(l *Loader) {
		l.http = client
	}
}

// WithHTTPFallback enables URL sources with a default client and timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		if l.http == nil {
			l.http = resty.New()
		}
		l.timeout = timeout
	}
}

// Loader reads OpenAPI documents. URL sources stay disabled unless a client
// is configured, so loading is offline by default.
type Loader struct {
	fs      fs.FS
	http    *resty.Client
	timeout time.Duration
}

// NewLoader constructs a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load returns the raw document referenced by src.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("openapi: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch src.Kind() {
	case SourceKindFile:
		return os.ReadFile(src.Location())
	case SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("openapi: filesystem is not configured")
		}
		return fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return nil, errors.New("openapi: http support disabled")
		}
		return l.loadHTTP(ctx, src.Location())
	default:
		return nil, fmt.Errorf("openapi: unsupported source kind %q", src.Kind())
	}
}

func (l *Loader) loadHTTP(ctx context.Context, location string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	resp, err := l.http.R().SetContext(ctx).Get(location)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", location, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openapi: fetch %s: unexpected status %s", location, resp.Status())
	}
	return resp.Body(), nil
}
