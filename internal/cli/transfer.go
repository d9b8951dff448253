package cli

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"philosophers-service/internal/app"
	"philosophers-service/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewImportCmd creates a game with its levels from a YAML document.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create a game from a YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc app.GameDocument
			if err := yaml.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			id, err := rt.service.ImportGame(cmd.Context(), doc)
			if err != nil {
				return err
			}
			log.Printf("imported game %d with %d levels", id, len(doc.Levels))
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

// NewExportCmd writes the YAML document of a game to stdout.
func NewExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <game id>",
		Short: "Write a game with its levels as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid game id %q", args[0])
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, err := rt.service.ExportGame(cmd.Context(), gameID)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
