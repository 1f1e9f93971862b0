package main

import (
	"context"
	"os"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
