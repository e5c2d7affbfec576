// Command linkpeek extracts a best-guess page title and preview image
// from web pages for link-preview features: a fast static-HTML parse
// first, escalating to full browser rendering only when the static pass
// yields nothing useful.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
