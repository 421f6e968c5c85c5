package main

import (
	"errors"
	"fmt"
	"log/slog"

	"library-desk/library"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var sqlitePath, yamlPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the data file to SQLite and/or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sqlitePath == "" && yamlPath == "" {
				return errors.New("nothing to do: pass --sqlite and/or --yaml")
			}
			store := library.NewFileStorage(opts.dataFile)
			data := store.Data()
			out := cmd.OutOrStdout()

			if sqlitePath != "" {
				if err := library.ExportSQLite(cmd.Context(), sqlitePath, data); err != nil {
					return fmt.Errorf("export sqlite: %w", err)
				}
				slog.InfoContext(cmd.Context(), "Exported SQLite snapshot", "path", sqlitePath)
				fmt.Fprintf(out, "Wrote %d books, %d cards, %d borrowers to %s\n", len(data.Books), len(data.LibraryCards), len(data.Borrowers), sqlitePath)
			}
			if yamlPath != "" {
				if err := library.ExportYAML(yamlPath, data); err != nil {
					return fmt.Errorf("export yaml: %w", err)
				}
				slog.InfoContext(cmd.Context(), "Exported YAML", "path", yamlPath)
				fmt.Fprintf(out, "Wrote %s\n", yamlPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Write a SQLite snapshot to this path")
	cmd.Flags().StringVar(&yamlPath, "yaml", "", "Write a YAML copy to this path")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := library.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
