// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// sourceFile is the on-disk representation of a file-backed connector:
// a name plus pre-collected raw results. Researchers use these for offline
// runs and to replay previously collected evidence without re-querying
// external APIs.
type sourceFile struct {
	Name    string            `yaml:"name"`
	Results []types.RawResult `yaml:"results"`
}

// FileConnector serves raw results from a YAML file. Records whose title
// and snippet do not mention the query are filtered out; an empty query
// matches everything.
type FileConnector struct {
	name    string
	results []types.RawResult
}

// NewFileConnector loads a source file from disk.
func NewFileConnector(path string) (*FileConnector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source file: %w", err)
	}
	var sf sourceFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing source file %s: %w", path, err)
	}
	if sf.Name == "" {
		sf.Name = "file"
	}
	return &FileConnector{name: sf.Name, results: sf.Results}, nil
}

// Name implements Connector.
func (f *FileConnector) Name() string { return f.name }

// Fetch implements Connector.
func (f *FileConnector) Fetch(ctx context.Context, query string) ([]types.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := strings.Fields(strings.ToLower(query))
	var matched []types.RawResult
	for _, r := range f.results {
		if matchesAny(r, terms) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func matchesAny(r types.RawResult, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(r.Title + " " + r.Snippet)
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}
