// Package audit records who changed what.
//
// Mutations of posts, comments, likes and accounts, plus session events,
// are appended to the audit_logs table through a Recorder that queues
// entries and writes them from a single goroutine. Admins read the trail
// back through Repository.List.
package audit
