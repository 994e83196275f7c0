// Command lendingd serves the lending workflow over HTTP and manages its event store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(os.LookupEnv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lendingd:", err)
		os.Exit(1)
	}
}
