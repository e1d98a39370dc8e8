package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chainroute/cmd"
)

func main() {
	// .env is optional: the built-in routers work without provider credentials.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
