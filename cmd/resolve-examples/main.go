// Resolves the two reference titles against the live Wikipedia and Wikidata APIs.
// William_T._Sherman goes straight to Wikidata, Tina_Turner follows Wikipedia redirects first.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/wikiqid/internal/model"
	"github.com/ppiankov/wikiqid/internal/pipeline"
)

func main() {
	examples := []struct {
		title   string
		variant model.Variant
	}{
		{"William_T._Sherman", model.VariantDirect},
		{"Tina_Turner", model.VariantFollow},
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := false
	for _, ex := range examples {
		cfg := model.DefaultConfig()
		cfg.Resolve.FollowRedirects = ex.variant == model.VariantFollow

		res, err := pipeline.NewPipeline(cfg, logger).Resolve(ctx, ex.title)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", ex.title, err)
			failed = true
			continue
		}

		fmt.Printf("%s: %s\n", ex.title, pipeline.TextLine(res))
		if res.Status == model.StatusUnavailable {
			fmt.Fprintf(os.Stderr, "  %s\n", res.Detail)
		}
	}

	if failed {
		os.Exit(1)
	}
}
