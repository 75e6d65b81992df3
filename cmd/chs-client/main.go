package main

import (
	"log"

	"github.com/MrSnakeDoc/chs/internal/app"
)

func main() {
	client, err := app.NewClient()
	if err != nil {
		log.Fatalf("❌ chs-client failed to start: %v", err)
	}
	if err := client.Run(); err != nil {
		log.Fatalf("❌ chs-client failed: %v", err)
	}
}
