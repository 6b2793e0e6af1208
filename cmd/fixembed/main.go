package main

import (
	"context"
	"log"

	"github.com/fixembed/fixembed-bot/internal/app"
)

func main() {
	ctx := context.Background()
	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("❌ fixembed failed to start: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("❌ fixembed stopped with error: %v", err)
	}
}
