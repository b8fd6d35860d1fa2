// Command certgen manages registrations and generates certificate archives
// without running the HTTP server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
