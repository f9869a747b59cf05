package main

import (
	"os"

	"github.com/sarth-shah20/mwdocker/cmd"
)

func main() {
	// cmd.Execute returns 0 on success, 1 on operational failures and 2 on errors.
	os.Exit(cmd.Execute())
}
