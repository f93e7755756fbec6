// Command vetsession inspects portal credentials, role routing and menus, and polls the
// notification feed against a running API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
