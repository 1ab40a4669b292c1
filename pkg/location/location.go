// Package location opens stream inputs and outputs named by a location
// string: "-" for stdin/stdout, "s3://bucket/key" for an S3 object, and a
// filesystem path otherwise.
package location

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Stdio is the location for stdin or stdout.
const Stdio = "-"

const s3Scheme = "s3://"

// S3API is the subset of *s3.Client used for S3 locations.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Opener opens locations.
//
// The zero value works for files and stdio. The S3 client is created from
// the default AWS configuration the first time an S3 location is used,
// unless S3 is already set.
type Opener struct {
	S3 S3API

	Stdin  io.Reader
	Stdout io.Writer

	// PutTimeout bounds the upload on Close of an S3 writer (default: 5m)
	PutTimeout time.Duration

	once    sync.Once
	initErr error
}

// IsS3 reports whether loc names an S3 object.
func IsS3(loc string) bool {
	return strings.HasPrefix(loc, s3Scheme)
}

// ParseS3 splits an s3://bucket/key location.
func ParseS3(loc string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(loc, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 location: %q", loc)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: expected s3://bucket/key", loc)
	}
	return bucket, key, nil
}

// Open opens loc for reading.
func (o *Opener) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	switch {
	case loc == "" || loc == Stdio:
		return io.NopCloser(o.stdin()), nil
	case IsS3(loc):
		bucket, key, err := ParseS3(loc)
		if err != nil {
			return nil, err
		}
		client, err := o.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", loc, err)
		}
		return out.Body, nil
	default:
		f, err := os.Open(loc)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		return f, nil
	}
}

// Create opens loc for writing. Nothing at loc is replaced until Close
// succeeds; Abort discards what was written.
//
// A file is written to a temporary file in the same directory and renamed
// over loc on Close. An S3 object is held in memory, so its size is bounded
// by available memory, and uploaded with a single PutObject on Close.
func (o *Opener) Create(ctx context.Context, loc string) (io.WriteCloser, error) {
	switch {
	case loc == "" || loc == Stdio:
		return nopWriteCloser{o.stdout()}, nil
	case IsS3(loc):
		bucket, key, err := ParseS3(loc)
		if err != nil {
			return nil, err
		}
		client, err := o.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		timeout := o.PutTimeout
		if timeout == 0 {
			timeout = 5 * time.Minute
		}
		return &s3Writer{
			client:  client,
			bucket:  bucket,
			key:     key,
			timeout: timeout,
		}, nil
	default:
		f, err := os.CreateTemp(filepath.Dir(loc), "."+filepath.Base(loc)+".*.tmp")
		if err != nil {
			return nil, fmt.Errorf("failed to create output: %w", err)
		}
		if err := f.Chmod(0644); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, fmt.Errorf("failed to create output: %w", err)
		}
		return &fileWriter{File: f, path: loc}, nil
	}
}

func (o *Opener) stdin() io.Reader {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}

func (o *Opener) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o *Opener) s3Client(ctx context.Context) (S3API, error) {
	o.once.Do(func() {
		if o.S3 != nil {
			return
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			o.initErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		o.S3 = s3.NewFromConfig(cfg)
	})
	if o.initErr != nil {
		return nil, o.initErr
	}
	return o.S3, nil
}

// Abort discards a writer returned by Create instead of committing it.
// Output already sent to stdout cannot be taken back and is left as is.
func Abort(w io.WriteCloser) error {
	if a, ok := w.(interface{ Abort() error }); ok {
		return a.Abort()
	}
	return w.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// fileWriter renames its temporary file to path on Close.
type fileWriter struct {
	*os.File
	path string
	done bool
}

func (w *fileWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.File.Close(); err != nil {
		os.Remove(w.File.Name())
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(w.File.Name(), w.path); err != nil {
		os.Remove(w.File.Name())
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (w *fileWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.File.Close()
	return os.Remove(w.File.Name())
}

// s3Writer collects an object body and uploads it on Close.
type s3Writer struct {
	client  S3API
	bucket  string
	key     string
	timeout time.Duration

	buf    bytes.Buffer
	closed bool
}

var errWriterClosed = errors.New("location: write to closed s3 object")

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errWriterClosed
	}
	return w.buf.Write(p)
}

// Abort drops the buffered body without uploading it.
func (w *s3Writer) Abort() error {
	w.closed = true
	w.buf = bytes.Buffer{}
	return nil
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(w.buf.Bytes()),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("failed to write to S3: %w", err)
	}
	return nil
}
