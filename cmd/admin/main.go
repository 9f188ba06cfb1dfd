package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/itemkeeper/internal/admincli"
)

func main() {
	if err := admincli.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
