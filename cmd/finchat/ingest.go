package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finchat-ai/finchat/ingest"
	"github.com/finchat-ai/finchat/rag"
	"github.com/finchat-ai/finchat/rag/loader"
	"github.com/finchat-ai/finchat/rag/splitter"
)

func newIngestCmd() *cobra.Command {
	var (
		urls    []string
		pdfPath string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Crawl and index the configured document sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if len(urls) > 0 {
				cfg.SourceURLs = urls
			}
			if pdfPath != "" {
				cfg.PDFPath = pdfPath
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			split, err := splitter.NewWindowSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
			if err != nil {
				return err
			}

			var webOpts []loader.WebLoaderOption
			webOpts = append(webOpts, loader.WithLogger(logger))
			if cfg.FirecrawlAPIKey != "" {
				webOpts = append(webOpts, loader.WithFirecrawl(cfg.FirecrawlAPIKey))
			}
			loaders := []rag.DocumentLoader{
				loader.NewWebLoader(cfg.SourceURLs, webOpts...),
			}
			if cfg.PDFPath != "" {
				loaders = append(loaders,
					loader.NewPDFLoader(cfg.PDFPath, loader.WithSourceName(cfg.PDFSource)))
			}

			job := &ingest.Job{
				Loaders:  loaders,
				Splitter: split,
				Embedder: a.embedder,
				Stores:   a.stores(),
				Logger:   logger,
			}
			report, err := job.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Indexed %d documents (%d chunks) into %d stores, %d skipped.\n",
				report.Documents, report.Chunks, report.Stores, report.Skipped)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&urls, "url", nil, "source URL to crawl (repeatable, overrides SOURCE_URLS)")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "PDF file to index (overrides PDF_PATH)")
	return cmd
}
