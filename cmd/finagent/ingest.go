package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inverlab/finagent/extract"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or directories]",
	Short: "Index documents into the retrieval store",
	Long: `ingest extracts text from the given files (PDF or plain text) and adds
them to the document index used by the search_internal_documents capability.
Directories are walked recursively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}

		extractor := extract.NewExtractor()
		ingested := 0
		for _, arg := range args {
			err := filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				text, err := extractor.Extract(path)
				if err != nil {
					return fmt.Errorf("extract %s: %w", path, err)
				}
				if strings.TrimSpace(text) == "" {
					logger.Warn("ingest.empty", "path", path)
					return nil
				}
				source := ingestSource
				if source == "" {
					source = filepath.Base(path)
				}
				if err := a.store.Ingest(cmd.Context(), text, source); err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				logger.Info("ingest.ok", "path", path, "source", source)
				ingested++
				return nil
			})
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d document(s)\n", ingested)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source label stored with every document (default: file name)")
}
