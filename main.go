package main

import (
	"os"

	"github.com/ohsu-comp-bio/fabuq/cmd"
	"github.com/ohsu-comp-bio/fabuq/fabsim"
	"github.com/ohsu-comp-bio/fabuq/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		if fabsim.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
