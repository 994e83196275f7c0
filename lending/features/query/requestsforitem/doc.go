// Package requestsforitem implements the Requests For Item query: every request ever made for
// one item, in creation order. Only the item's owner may see them.
package requestsforitem
