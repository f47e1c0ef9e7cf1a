package main

import (
	"log"
	"os"

	"sentiscope/internal/command"
)

func main() {
	if err := command.NewApp(command.NewActions()).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
