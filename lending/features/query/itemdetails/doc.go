// Package itemdetails implements the Item Details query: one item with its lending status
// and the number of pending requests for it.
package itemdetails
