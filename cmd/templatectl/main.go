// Command templatectl seeds the built-in catalog, checks and previews template
// files offline, and mints tokens and admin key hashes for local setups.
package main

import (
	"os"

	"github.com/sakif/wapanel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
