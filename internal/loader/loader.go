// Package loader fetches schema documents from files, fs.FS entries and
// HTTP endpoints.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/schema"
)

// ErrHTTPDisabled is returned for URL sources when remote loading was not
// enabled.
var ErrHTTPDisabled = errors.New("loader: http support disabled")

// Options configures a Loader.
type Options struct {
	// FileSystem serves fs sources. Nil makes fs sources fail.
	FileSystem fs.FS

	// HTTPClient is used for URL sources. Nil disables them unless
	// AllowHTTP is set.
	HTTPClient *http.Client

	// AllowHTTP enables URL sources with a default client.
	AllowHTTP bool

	// Timeout caps remote fetches.
	Timeout time.Duration

	Logger *zap.Logger
}

// Option mutates Options prior to construction.
type Option func(*Options)

// WithFileSystem serves fs sources from files.
func WithFileSystem(files fs.FS) Option {
	return func(opts *Options) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a client for URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithHTTP enables URL sources using a default client and the given timeout.
func WithHTTP(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.AllowHTTP = true
		opts.Timeout = timeout
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Loader implements schema.Loader by delegating to file, fs.FS, or HTTP
// strategies.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
	logger    *zap.Logger
}

var _ schema.Loader = (*Loader)(nil)

// New constructs a Loader.
func New(options ...Option) *Loader {
	var opts Options
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	var httpClient *http.Client
	switch {
	case opts.HTTPClient != nil:
		clone := *opts.HTTPClient
		if opts.Timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = opts.Timeout
		}
		httpClient = &clone
	case opts.AllowHTTP:
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loader{
		fs:        opts.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   opts.Timeout,
		logger:    logger,
	}
}

// Load fetches a document from src and wraps it in a Document.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case schema.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case schema.SourceKindURL:
		if !l.allowHTTP {
			return schema.Document{}, ErrHTTPDisabled
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("loader: %s %s: %w", src.Kind(), src.Location(), err)
	}

	l.logger.Debug("schema document loaded",
		zap.String("kind", string(src.Kind())),
		zap.String("location", src.Location()),
		zap.Int("bytes", len(data)),
	)
	return schema.NewDocument(src, data)
}
