package main

import (
	"os"

	"github.com/flybeeper/gps-filter/pkg/utils"
)

// Version будет установлен при сборке через ldflags
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		utils.Error(err.Error())
		os.Exit(1)
	}
}
