// Command directivectl parses, renders and rewrites CMS page content that
// carries component directives. Components and promotions come from a YAML
// catalog (see pkg/store.Catalog).
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
