// Command formdef converts model schemas into form field definitions, looks
// up single fields, lints OpenAPI form extensions and fills forms
// interactively.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr, nil).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "formdef: %v\n", err)
		os.Exit(1)
	}
}
