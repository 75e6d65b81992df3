package main

import (
	"log"

	"github.com/MrSnakeDoc/chs/internal/app"
)

func main() {
	srv, err := app.NewServer()
	if err != nil {
		log.Fatalf("❌ chs-server failed to start: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("❌ chs-server failed: %v", err)
	}
}
