package main

import (
	"log"

	"github.com/co2cast/co2cast/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
