// Package models holds the persisted and view-level data structures.
package models

// Task is a row of the tasks table. Details holds the ciphertext token;
// title, timestamps and the completion flag are stored in plaintext.
type Task struct {
	ID         int64
	Title      string
	Details    string
	CreatedBy  int64
	UpdatedBy  int64
	CreatedAt  string
	UpdatedAt  string
	IsComplete bool
}

// TaskWithWrap pairs a task row with the requesting user's wrapped content
// key, as produced by the joint task/grant/wrap lookup.
type TaskWithWrap struct {
	Task
	WrappedKey string
}

// TaskView is a decrypted task returned to callers: Details is plaintext,
// everything else is the unencrypted metadata.
type TaskView struct {
	ID         int64
	Title      string
	Details    string
	CreatedBy  int64
	UpdatedBy  int64
	CreatedAt  string
	UpdatedAt  string
	IsComplete bool
}

// TaskUpdate carries optional field changes for an update; a nil field is
// left untouched.
type TaskUpdate struct {
	Title      *string
	Details    *string
	IsComplete *bool
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Details == nil && u.IsComplete == nil
}
