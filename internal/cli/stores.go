package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/HendryAvila/plantbot/internal/blob"
	"github.com/HendryAvila/plantbot/internal/config"
	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/ingredients"
)

// stores opens persistence without training a model, for commands that
// only read or edit documents.
type stores struct {
	ingredients *ingredients.DocStore
	history     history.Store
}

func openStores(ctx context.Context, cfg config.Config) (*stores, func(), error) {
	blobs, err := blob.Open(ctx, cfg.BlobOptions())
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening storage: %w", err)
	}
	hist, err := history.Open(ctx, cfg.HistoryOptions(blobs))
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening history: %w", err)
	}
	return &stores{ingredients: ingredients.NewDocStore(blobs), history: hist}, func() {
		if err := hist.Close(); err != nil {
			log.Printf("WARNING: history store close: %v", err)
		}
	}, nil
}
