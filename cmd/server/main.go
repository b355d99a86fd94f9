package main

import (
	"os"

	"quizroom/internal/cli"
)

// @title Quizroom API
// @version 1.0
// @description Multiplayer quiz rooms with a shared question bank
// @BasePath /api
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
