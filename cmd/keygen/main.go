package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/allocation-api-go/pkg/auth"
	"github.com/arnavshah/allocation-api-go/pkg/config"
)

func main() {
	config.LoadDotEnv()

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/keygen <userID>")
		os.Exit(1)
	}

	userID := os.Args[1]
	secret := os.Getenv("API_MASTER_SECRET")
	if secret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in environment or .env")
		os.Exit(1)
	}

	apiKey := auth.GenerateHMACKey(secret, userID)
	fmt.Printf("Generated Key for %s:\n%s\n", userID, apiKey)
}
