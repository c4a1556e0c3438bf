// Package store provides persistent storage for abra using SQLite.
//
// # Data Models
//
//   - User: Registered account with a unique name and a bcrypt password hash
//   - Message: Directed message between two users with a one-way read flag
//
// # Authorization
//
// Every message read and delete query carries the participant predicate
// (sender_id = caller OR receiver_id = caller) in its WHERE clause. A message
// that does not exist and a message the caller is not a participant of are
// both reported as ErrMessageNotFound, so callers cannot probe for existence.
//
// # Read-State Transitions
//
// A message's read flag starts false and flips to true at most once:
//
//   - ListReceivedMarkRead flips the caller's whole inbox with one filtered
//     UPDATE inside the listing transaction
//   - ListUnreadMarkRead does the same for the unread subset
//   - MarkMessageRead flips a single message, conditional on the caller
//     being its receiver and the message still being unread
//
// There is no operation that sets the flag back to false.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use NewSQLiteStore(":memory:") or a t.TempDir() path for tests.
//
// All methods accept context.Context for cancellation support.
package store
