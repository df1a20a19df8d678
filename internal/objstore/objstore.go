// Package objstore is the attachment object store used in signed-in mode.
//
// Objects live under <root>/<owner>/<taskID>/<unix-millis>-<name> and are
// referenced by baseURL + that path. Writes and deletes go through an
// OwnerBucket, which only touches paths inside its owner's prefix.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tgienger/seotrack/internal/clock"
	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/fsutil"
)

// DefaultMaxBytes caps a single upload when no limit is configured
const DefaultMaxBytes = 10 << 20

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Bucket is a filesystem-backed object store
type Bucket struct {
	root     string
	baseURL  string
	maxBytes int64
	clock    clock.Clock
}

// Option configures a Bucket
type Option func(*Bucket)

// WithClock sets the clock used for object name prefixes
func WithClock(c clock.Clock) Option {
	return func(b *Bucket) { b.clock = c }
}

// WithMaxBytes sets the upload size limit
func WithMaxBytes(n int64) Option {
	return func(b *Bucket) {
		if n > 0 {
			b.maxBytes = n
		}
	}
}

// New returns a bucket rooted at dir. baseURL prefixes every reference; it
// defaults to a file:// URL of dir.
func New(dir, baseURL string, opts ...Option) (*Bucket, error) {
	if dir == "" {
		return nil, fmt.Errorf("attachments dir %w", seoerrors.ErrEmptyValue)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, seoerrors.Wrap(err, "resolve attachments dir")
	}
	if baseURL == "" {
		baseURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	b := &Bucket{
		root:     abs,
		baseURL:  strings.TrimSuffix(baseURL, "/") + "/",
		maxBytes: DefaultMaxBytes,
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Root returns the bucket directory
func (b *Bucket) Root() string {
	return b.root
}

// URLFor returns the reference URL of an object path
func (b *Bucket) URLFor(objectPath string) string {
	return b.baseURL + objectPath
}

// PathFromURL returns the object path of a reference produced by this bucket
func (b *Bucket) PathFromURL(ref string) (string, bool) {
	if !strings.HasPrefix(ref, b.baseURL) {
		return "", false
	}
	p := strings.TrimPrefix(ref, b.baseURL)
	if p == "" {
		return "", false
	}
	return p, true
}

// ForOwner returns a view of the bucket restricted to one owner's prefix
func (b *Bucket) ForOwner(owner string) *OwnerBucket {
	return &OwnerBucket{bucket: b, owner: owner}
}

// OwnerBucket writes and deletes objects under <owner>/ only
type OwnerBucket struct {
	bucket *Bucket
	owner  string
}

// Upload stores data for a task and returns its reference URL
func (o *OwnerBucket) Upload(ctx context.Context, taskID, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := o.checkOwner(); err != nil {
		return "", err
	}
	if !safeSegment(taskID) {
		return "", fmt.Errorf("task id %q: %w", taskID, seoerrors.ErrInvalidInput)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("attachment %w", seoerrors.ErrEmptyValue)
	}
	if int64(len(data)) > o.bucket.maxBytes {
		return "", fmt.Errorf("%d bytes exceeds %d: %w", len(data), o.bucket.maxBytes, seoerrors.ErrAttachmentTooLarge)
	}

	name := fmt.Sprintf("%d-%s", o.bucket.clock.Now().UnixMilli(), SanitizeName(filename))
	objectPath := path.Join(o.owner, taskID, name)
	if err := fsutil.AtomicWrite(o.bucket.fullPath(objectPath), data); err != nil {
		return "", fmt.Errorf("%w: %w", seoerrors.ErrAttachmentUpload, err)
	}
	return o.bucket.URLFor(objectPath), nil
}

// Delete removes an object. The path must sit inside the owner's prefix.
// Deleting an object that is already gone is not an error.
func (o *OwnerBucket) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.checkOwner(); err != nil {
		return err
	}
	clean, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(clean, o.owner+"/") {
		return fmt.Errorf("object %q outside %s/: %w", objectPath, o.owner, seoerrors.ErrForbidden)
	}

	if err := os.Remove(o.bucket.fullPath(clean)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return seoerrors.Wrap(err, "delete attachment")
	}
	return nil
}

// PathFromURL is Bucket.PathFromURL
func (o *OwnerBucket) PathFromURL(ref string) (string, bool) {
	return o.bucket.PathFromURL(ref)
}

func (o *OwnerBucket) checkOwner() error {
	if !safeSegment(o.owner) {
		return fmt.Errorf("owner %q: %w", o.owner, seoerrors.ErrForbidden)
	}
	return nil
}

func (b *Bucket) fullPath(objectPath string) string {
	return filepath.Join(b.root, filepath.FromSlash(objectPath))
}

// cleanObjectPath rejects absolute paths and any ".." segment
func cleanObjectPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("object path %w", seoerrors.ErrEmptyValue)
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return "", fmt.Errorf("object path %q: %w", p, seoerrors.ErrPathTraversal)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("object path %q: %w", p, seoerrors.ErrPathTraversal)
		}
	}
	return path.Clean(p), nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// SanitizeName keeps the base name of a file with anything outside
// [a-zA-Z0-9._-] collapsed to "_"
func SanitizeName(name string) string {
	base := path.Base(filepath.ToSlash(name))
	clean := strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if clean == "" {
		return "file"
	}
	return clean
}
