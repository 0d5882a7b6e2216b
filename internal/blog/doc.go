// Package blog provides posts, comments and likes.
//
// Posts carry a banner image stored in the object store, a unique slug
// derived from the title and denormalised view, like and comment counters.
// The counters are kept in step with the comments and likes tables inside
// the same transaction as the row that changes them.
//
// # Thread Safety
//
// The SQLite repositories are safe for concurrent use from multiple
// goroutines.
package blog
