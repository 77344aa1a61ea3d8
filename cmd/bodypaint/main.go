// Package main is the bodypaint command itself.
package main

import (
	"os"

	"go.viam.com/bodypaint/cli"
	"go.viam.com/bodypaint/logging"
)

func main() {
	if err := cli.NewApp(os.Stdout).Run(os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}
