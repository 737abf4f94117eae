package main

import (
	"context"
	"encoding/json"
	"os"
)

type TickCmd struct{}

// Run executes one pass and prints the report as JSON.
func (t *TickCmd) Run(ctx *Context) error {
	a, err := newApp(ctx.Config)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.runner().Tick(context.Background())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
