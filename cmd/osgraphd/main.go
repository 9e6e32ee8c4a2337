package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/trailstone/osgraph/internal/adapters/driving/cli"
)

func main() {
	// Source credentials may live in a local .env; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
