package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/bylawbot/internal/usecase/citation"
)

const maxAnnotateInput = 1 << 20

func annotateAction(_ context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	data, err := io.ReadAll(io.LimitReader(cmd.Root().Reader, maxAnnotateInput))
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return annotate(cmd.Root().Writer, string(data), format)
}

func annotate(w io.Writer, text, format string) error {
	a := citation.New()

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a.Segments(text)); err != nil {
			return fmt.Errorf("encode segments: %w", err)
		}
		return nil
	}

	out := a.Render(text, citation.Citation.Label)
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
