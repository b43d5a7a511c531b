package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
	"github.com/aretw0/lattice/pkg/schema"
)

// errInvalidDocument is returned when the document fails its schema; the
// issues have already been printed.
var errInvalidDocument = errors.New("document is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate <schema.yaml> [document.json]",
	Short: "Validate a JSON document against a schema",
	Long: `Reads a YAML schema definition and validates a JSON document against it.
The document is read from stdin when no file is given. Every issue found is
reported, one per line.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		obj, err := schema.FromYAML(def)
		if err != nil {
			return err
		}

		var src io.Reader = cmd.InOrStdin()
		if len(args) == 2 {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			src = bytes.NewReader(data)
		}
		dec := json.NewDecoder(src)
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("parse document: %w", err)
		}

		out := cmd.OutOrStdout()
		_, err = pipeline.Validate(cmd.Context(), doc, obj)
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				fmt.Fprintf(out, "✗ %s\n", issue)
			}
			return errInvalidDocument
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Document is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
