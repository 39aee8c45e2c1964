package main

import (
	"fmt"
	"os"

	"github.com/mirrordoc/mirrordoc/internal/cmd"
	"github.com/mirrordoc/mirrordoc/internal/version"
)

func root() int {
	root := cmd.Root()
	root.Version = fmt.Sprintf("mirrordoc %s", version.Full())
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func main() {
	os.Exit(root())
}
