// Package itemsofowner implements the Items Of Owner query: all items listed by one member,
// or all items when no owner is given. There is no search, paging or sorting beyond listing order.
package itemsofowner
