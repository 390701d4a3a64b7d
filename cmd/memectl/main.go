package main

import (
	"os"
)

func main() {
	root, a := newRootCmd(buildFromEnv)
	err := root.Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
