// Package messaging implements the direct-message operations of abra.
//
// Every operation acts on behalf of an authenticated user and only ever
// touches messages that user sent or received; the scoping lives in the
// store queries, not in post-filtering here.
//
// Listing received mail flips the unread flag as a side effect, and the
// returned messages show their state as of before the flip, so a caller of
// ListUnread sees read=false exactly once per message. GetByID flips only
// when the caller is the receiver of a still-unread message.
package messaging
