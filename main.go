package main

import (
	"github.com/joho/godotenv"

	"github.com/KaramelBytes/candidash/cmd"
)

func main() {
	// optional .env with CANDIDASH_* overrides
	_ = godotenv.Load()
	cmd.Execute()
}
