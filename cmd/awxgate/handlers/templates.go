package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Templates handles the templates command.
func Templates(ctx context.Context, opts Options) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	templates := a.svc.GetTemplates(ctx)
	if opts.JSON {
		return printJSON(stdout, templates)
	}

	if len(templates) == 0 {
		fmt.Fprintln(stdout, "No job templates available (or AWX could not be reached).")
		return nil
	}
	for _, name := range templates {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
