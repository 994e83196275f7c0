// Package ownerinbox implements the Owner Inbox query: the pending requests addressed to one owner,
// oldest first.
package ownerinbox
