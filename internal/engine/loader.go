package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/goccy/go-json"

	"olympics/internal/errs"
	"olympics/internal/models"
)

// maxDatasetBytes caps how much of a remote response is read.
const maxDatasetBytes = 8 << 20

// Source fetches the full dataset. Every failure it returns is a fetch failure.
type Source interface {
	Fetch(ctx context.Context) ([]models.Country, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]models.Country, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]models.Country, error) {
	return f(ctx)
}

// FileSource reads the dataset from a JSON file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) ([]models.Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchError("read "+s.Path, err)
	}
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fetchError("read "+s.Path, err)
	}
	return decodeDataset(content)
}

// HTTPSource fetches the dataset with a GET request.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context) ([]models.Country, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fetchError("GET "+s.URL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fetchError("GET "+s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchError("GET "+s.URL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, fetchError("GET "+s.URL, err)
	}
	return decodeDataset(content)
}

// decodeDataset parses the JSON array and rejects duplicate ids.
func decodeDataset(content []byte) ([]models.Country, error) {
	var countries []models.Country
	if err := json.Unmarshal(content, &countries); err != nil {
		return nil, fetchError("decode dataset", err)
	}
	if countries == nil {
		return nil, fetchError("decode dataset", fmt.Errorf("dataset is null"))
	}

	seen := make(map[int]struct{}, len(countries))
	for _, c := range countries {
		if _, dup := seen[c.ID]; dup {
			return nil, fetchError("validate dataset", fmt.Errorf("duplicate country id %d", c.ID))
		}
		seen[c.ID] = struct{}{}
	}
	return countries, nil
}

func fetchError(msg string, cause error) error {
	return errs.New("engine/fetch", errs.CodeFetch, errs.WithMessage(msg), errs.WithCause(cause))
}
