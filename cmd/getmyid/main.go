package main

import (
	"os"

	"github.com/lydakis/getmyid/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
