// Command ingest loads documents and their metadata into the page index.
//
//	ingest -docs ./data/pdfs -metadata ./data/metadata.csv
//	ingest -docs s3://bucket/reports/ -metadata s3://bucket/metadata.csv
//	ingest -reset -docs ...   drop the index before loading
//	ingest -stats             print object count and schema only
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdave123-py/docsearch/internal/app"
	"github.com/markdave123-py/docsearch/internal/config"
	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/docsearch/internal/core/object-client"
	"github.com/markdave123-py/docsearch/internal/observability"
)

func main() {
	var (
		docs        = flag.String("docs", "", "document directory or s3://bucket/prefix")
		metadata    = flag.String("metadata", "", "metadata csv path or s3://bucket/key")
		reset       = flag.Bool("reset", false, "drop the page index before ingesting")
		stats       = flag.Bool("stats", false, "only print the object count and schema")
		readability = flag.Bool("readability", false, "use readability mode for html documents")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *docs, *metadata, *reset, *stats, *readability); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, docs, metadata string, reset, stats, readability bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	observability.Init(os.Stderr, cfg.Verbose)

	backends, err := app.NewBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	if stats {
		return printStats(ctx, backends.Writer, os.Stdout)
	}
	if docs == "" || metadata == "" {
		return fmt.Errorf("both -docs and -metadata are required")
	}

	var s3 *objectclient.S3Client
	if objectclient.IsS3URI(docs) || objectclient.IsS3URI(metadata) {
		if s3, err = objectclient.NewS3Client(ctx, cfg); err != nil {
			return err
		}
	}

	table, err := loadMetadata(ctx, s3, metadata)
	if err != nil {
		return err
	}

	var src ingestion_engine.DocumentSource = ingestion_engine.DirSource{Root: docs}
	if objectclient.IsS3URI(docs) {
		if src, err = ingestion_engine.NewS3Source(s3, docs); err != nil {
			return err
		}
	}

	if reset {
		slog.Warn("dropping page index", "class", cfg.IndexClass)
		if err := backends.Writer.DropSchema(ctx); err != nil {
			return err
		}
	}

	ing := ingestion_engine.NewDocumentIngestor(backends.Writer, backends.Embedder, ingestion_engine.NewDocconvExtractor(readability), &ingestion_engine.IngestConfig{
		TargetTokens:  cfg.IngestTargetTokens,
		OverlapTokens: cfg.IngestOverlapTokens,
		BatchSize:     cfg.IngestBatchSize,
	})
	report, err := ing.Store(ctx, src, table)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "stored %d pages from %d documents; index now holds %d objects\n",
		report.Stored, report.Documents, report.IndexedObjects)
	return nil
}

func loadMetadata(ctx context.Context, s3 core.ObjectClient, location string) (ingestion_engine.MetadataTable, error) {
	var r io.Reader
	if objectclient.IsS3URI(location) {
		bucket, key, err := objectclient.ParseS3URI(location)
		if err != nil {
			return nil, err
		}
		body, err := s3.GetObjectReader(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		r = body
	} else {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open metadata: %w", err)
		}
		defer f.Close()
		r = f
	}
	return ingestion_engine.LoadMetadataCSV(r)
}

func printStats(ctx context.Context, w core.IndexWriter, out io.Writer) error {
	props, err := w.DescribeSchema(ctx)
	if err != nil {
		return err
	}
	if props == nil {
		fmt.Fprintln(out, "page index does not exist")
		return nil
	}
	n, err := w.CountPages(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"objects": n, "properties": props})
}
