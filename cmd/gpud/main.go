package main

import (
	"log"

	"github.com/gpuorch/gpud/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
