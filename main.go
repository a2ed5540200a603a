package main

import (
	cmd "github.com/getzep/textlab/cmd/textlab"
	"github.com/getzep/textlab/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting textlab")
	cmd.Execute()
}
