// Package objectstore stores blog banner images in an S3-compatible bucket.
//
// The Store talks to the bucket through the small ObjectAPI interface, which
// *s3.Client satisfies, so tests substitute an in-memory fake. ProbeImage
// checks an upload's format and dimensions before anything is stored.
//
// Usage:
//
//	store, err := objectstore.New(ctx, cfg.Storage)
//	info, err := objectstore.ProbeImage(data)
//	obj, err := store.Put(ctx, data, info)
//	defer store.Delete(ctx, obj.Key)
package objectstore
