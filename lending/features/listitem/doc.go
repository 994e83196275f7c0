// Package listitem lets a member list an item for lending. Listed items start available.
package listitem
