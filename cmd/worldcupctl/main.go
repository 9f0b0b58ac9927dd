package main

import (
	"os"

	"github.com/Dosada05/worldcup/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
