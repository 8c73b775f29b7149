package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

var ErrNoBucket = errors.New("archive bucket not configured")

var unsafeChars = regexp.MustCompile(`[^a-z0-9_\-]`)

// GCSArchiver stores exported screen documents under
// screens/<key>/<timestamp>.json in a single bucket.
type GCSArchiver struct {
	Bucket string
	Now    func() time.Time
}

func NewGCSArchiver(bucket string) *GCSArchiver {
	return &GCSArchiver{Bucket: bucket, Now: time.Now}
}

func (a *GCSArchiver) Archive(ctx context.Context, screenKey string, doc []byte) (string, error) {
	if a.Bucket == "" {
		return "", ErrNoBucket
	}

	client, err := newGCSClientHook(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	name := ObjectName(screenKey, a.now())
	w := client.Bucket(a.Bucket).Object(name).NewWriter(ctx, "application/json")
	if _, err := w.Write(doc); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("gs://%s/%s", a.Bucket, name), nil
}

// List returns the gs:// URLs of every archived export for a screen, oldest first.
func (a *GCSArchiver) List(ctx context.Context, screenKey string) ([]string, error) {
	if a.Bucket == "" {
		return nil, ErrNoBucket
	}

	client, err := newGCSClientHook(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	it := client.Bucket(a.Bucket).Objects(ctx, &storage.Query{Prefix: Prefix(screenKey)})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, fmt.Sprintf("gs://%s/%s", a.Bucket, n))
	}
	return out, nil
}

func (a *GCSArchiver) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func Prefix(screenKey string) string {
	return fmt.Sprintf("screens/%s/", SanitizePart(screenKey))
}

// ObjectName sorts lexically in time order.
func ObjectName(screenKey string, t time.Time) string {
	return Prefix(screenKey) + t.UTC().Format("20060102T150405.000Z") + ".json"
}

func SanitizePart(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		return "unknown"
	}
	return s
}
