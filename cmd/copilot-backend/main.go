package main

import (
	"log"

	"github.com/Ziad-epi/ai-data-copilot/internal/builder"
)

func main() {
	app, err := builder.Build()
	if err != nil {
		log.Fatal("Failed to build application:", err)
	}

	if err := app.Run(); err != nil {
		log.Fatal("Application error:", err)
	}
}
