package archive

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
)

type gcsClient interface {
	Bucket(name string) gcsBucket
	Close() error
}
type gcsBucket interface {
	Object(name string) gcsObject
	Objects(ctx context.Context, q *storage.Query) objectIterator
}
type gcsObject interface {
	NewWriter(ctx context.Context, contentType string) io.WriteCloser
}
type objectIterator interface {
	Next() (*storage.ObjectAttrs, error)
}

type realGCSClient struct{ c *storage.Client }
type realGCSBucket struct{ b *storage.BucketHandle }
type realGCSObject struct{ o *storage.ObjectHandle }

func (r realGCSClient) Bucket(name string) gcsBucket { return realGCSBucket{b: r.c.Bucket(name)} }
func (r realGCSClient) Close() error                 { return r.c.Close() }
func (b realGCSBucket) Object(name string) gcsObject { return realGCSObject{o: b.b.Object(name)} }
func (b realGCSBucket) Objects(ctx context.Context, q *storage.Query) objectIterator {
	return b.b.Objects(ctx, q)
}
func (o realGCSObject) NewWriter(ctx context.Context, contentType string) io.WriteCloser {
	w := o.o.NewWriter(ctx)
	w.ContentType = contentType
	return w
}

var newGCSClientHook = func(ctx context.Context) (gcsClient, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return realGCSClient{c: c}, nil
}
