package main

import (
	"os"

	"github.com/authrelay/authrelay/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
