package corpus

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/safe"
)

// Store lists the raw documents of a knowledge corpus
type Store interface {
	List(ctx context.Context) ([]model.Document, error)
}

// documentFile is the JSON shape the ingestion pipeline writes to the
// bucket, one object per document.
type documentFile struct {
	Title     string `json:"titre"`
	Body      string `json:"contenu"`
	SourceURL string `json:"source_url"`
}

// gcsStore implements Store over a Cloud Storage bucket prefix
type gcsStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a Store reading JSON documents under gs://bucket/prefix
func NewGCSStore(ctx context.Context, bucket, prefix string) (Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &gcsStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *gcsStore) List(ctx context.Context) ([]model.Document, error) {
	logger := logging.From(ctx)

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})

	docs := make([]model.Document, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list corpus objects",
				goerr.V("bucket", s.bucket), goerr.V("prefix", s.prefix))
		}

		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}

		doc, err := s.readObject(ctx, attrs.Name)
		if err != nil {
			// A single broken object must not take down retrieval.
			logger.Warn("skipping malformed corpus object",
				"object", attrs.Name, "error", err)
			continue
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *gcsStore) readObject(ctx context.Context, name string) (model.Document, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return model.Document{}, goerr.Wrap(err, "failed to open corpus object", goerr.V("object", name))
	}
	defer safe.Close(ctx, r)

	raw, err := io.ReadAll(r)
	if err != nil {
		return model.Document{}, goerr.Wrap(err, "failed to read corpus object", goerr.V("object", name))
	}

	var f documentFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return model.Document{}, goerr.Wrap(err, "failed to parse corpus object", goerr.V("object", name))
	}
	if f.Title == "" && f.Body == "" {
		return model.Document{}, goerr.New("corpus object has no content", goerr.V("object", name))
	}

	return model.NewDocument(f.Title, f.Body, f.SourceURL), nil
}
