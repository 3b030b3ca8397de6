// Command docgen writes reference documentation for the keyword-tracker
// server binary and the kwt client.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	kwt "github.com/donaldgifford/keyword-tracker/cmd/kwt/cmd"
	server "github.com/donaldgifford/keyword-tracker/cmd/keyword-tracker/cmd"
)

type binary struct {
	name string
	root func() *cobra.Command
}

var binaries = []binary{
	{name: "keyword-tracker", root: server.Root},
	{name: "kwt", root: kwt.Root},
}

func main() {
	output := flag.String("output", "docs/cli", "output directory; one subdirectory per binary")
	format := flag.String("format", "markdown", "markdown, man or yaml")
	flag.Parse()

	n, err := generate(*output, *format)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s docs for %d binaries to %s/\n", *format, n, *output)
}

func generate(output, format string) (int, error) {
	gen, err := generator(format)
	if err != nil {
		return 0, err
	}

	for _, b := range binaries {
		dir := filepath.Join(output, b.name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("creating %s: %w", dir, err)
		}

		root := b.root()
		root.DisableAutoGenTag = true
		if err := gen(root, dir); err != nil {
			return 0, fmt.Errorf("generating %s docs: %w", b.name, err)
		}
	}
	return len(binaries), nil
}

func generator(format string) (func(*cobra.Command, string) error, error) {
	switch format {
	case "markdown", "md":
		return doc.GenMarkdownTree, nil
	case "man":
		return func(c *cobra.Command, dir string) error {
			return doc.GenManTree(c, &doc.GenManHeader{Title: c.Name(), Section: "1", Source: "keyword-tracker"}, dir)
		}, nil
	case "yaml":
		return doc.GenYamlTree, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
