package ingestion_engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/markdave123-py/docsearch/internal/core"
	objectclient "github.com/markdave123-py/docsearch/internal/core/object-client"
)

// DocumentSource lists and reads the raw documents of one ingestion run.
// Names are what pages record as their source.
type DocumentSource interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

var supportedExt = map[string]bool{".pdf": true, ".docx": true, ".doc": true, ".odt": true, ".txt": true, ".html": true, ".htm": true, ".rtf": true}

func supported(name string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(name))]
}

// DirSource walks a local directory recursively, skipping hidden files.
type DirSource struct {
	Root string
}

func (d DirSource) List(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(d.Root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !supported(e.Name()) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", d.Root, err)
	}
	sort.Strings(out)
	return out, nil
}

func (d DirSource) Read(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(name)
}

// S3Source lists every supported object under a bucket prefix.
type S3Source struct {
	Client core.ObjectClient
	Bucket string
	Prefix string
}

func NewS3Source(client core.ObjectClient, uri string) (*S3Source, error) {
	bucket, prefix, err := objectclient.ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	return &S3Source{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (s *S3Source) List(ctx context.Context) ([]string, error) {
	keys, err := s.Client.ListKeys(ctx, s.Bucket, s.Prefix)
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if supported(k) && !strings.HasPrefix(filepath.Base(k), ".") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *S3Source) Read(ctx context.Context, name string) ([]byte, error) {
	return s.Client.GetFile(ctx, s.Bucket, name)
}
