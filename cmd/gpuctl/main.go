package main

import (
	"github.com/gpuorch/gpud/pkg/cli"
)

func main() {
	cli.Execute()
}
