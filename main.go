package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/vendalab/salespipe/internal/flow"
	"github.com/vendalab/salespipe/internal/models"
	"github.com/vendalab/salespipe/internal/store"
)

func main() {
	// In-memory processor, no storage, just for demonstration
	processor := flow.NewProcessor(store.NewInMemoryStore())
	ctx := context.Background()

	turns := []string{
		"Oi, bom dia! Tudo bem?",
		"Tenho uma clínica aqui em Campinas",
		"Nosso maior problema é perder leads na planilha",
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, text := range turns {
		decision, err := processor.Process(ctx, models.TurnInput{
			ContactID:   "demo-contact",
			InboundText: text,
		})
		if err != nil {
			log.Fatalf("Failed to process turn: %v", err)
		}
		if err := enc.Encode(decision); err != nil {
			log.Fatalf("Failed to encode decision: %v", err)
		}
	}
}
