// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package credibility

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/internal/httputil"
)

// doiPattern matches a DOI embedded anywhere in an identity string.
var doiPattern = regexp.MustCompile(`10\.\d{4,}/[^\s"<>]+`)

// ExtractDOI returns the first DOI found in s, or "" when none is present.
func ExtractDOI(s string) string {
	return strings.TrimRight(doiPattern.FindString(s), ".,;")
}

// Registry holds the set of DOIs known to be retracted. Lookups are
// case-insensitive. The registry is immutable after construction, so it is
// safe for concurrent use by scoring workers.
type Registry struct {
	dois map[string]bool
}

// NewRegistry builds a registry from a DOI list.
func NewRegistry(dois []string) *Registry {
	set := make(map[string]bool, len(dois))
	for _, d := range dois {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = true
		}
	}
	return &Registry{dois: set}
}

// IsRetracted reports whether doi appears in the registry.
func (r *Registry) IsRetracted(doi string) bool {
	return r.dois[strings.ToLower(strings.TrimSpace(doi))]
}

// Len returns the number of registered DOIs.
func (r *Registry) Len() int { return len(r.dois) }

// retractionsFile is the YAML shape of a local retraction list.
type retractionsFile struct {
	Retracted []string `yaml:"retracted"`
}

// LoadRetractionsFile reads a YAML retraction list:
//
//	retracted:
//	  - 10.1234/example.5678
func LoadRetractionsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading retractions file: %w", err)
	}
	var f retractionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing retractions file: %w", err)
	}
	return f.Retracted, nil
}

// FetchRegistry downloads a newline-delimited DOI list. Registry hosts rate
// limit aggressively, so the request goes through the 429-retry helper.
// Lines that do not contain a DOI are skipped.
func FetchRegistry(ctx context.Context, client *http.Client, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating registry request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching retraction registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retraction registry returned HTTP %d", resp.StatusCode)
	}

	var dois []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if doi := ExtractDOI(scanner.Text()); doi != "" {
			dois = append(dois, doi)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading retraction registry: %w", err)
	}
	return dois, nil
}

// tiersFile is the YAML shape of a tier table override.
type tiersFile struct {
	Tiers []Tier `yaml:"tiers"`
}

// LoadTiersFile reads an ordered tier table:
//
//	tiers:
//	  - match: nature.com
//	    base: 0.85
//	    label: peer_reviewed
func LoadTiersFile(path string) ([]Tier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tiers file: %w", err)
	}
	var f tiersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tiers file: %w", err)
	}
	if len(f.Tiers) == 0 {
		return nil, fmt.Errorf("tiers file %s defines no tiers", path)
	}
	return f.Tiers, nil
}

// FromConfig assembles a scorer from configuration: optional tier table
// override, optional local retraction list, optional remote registry.
// Warnings for unreachable optional inputs go to errw; only malformed
// local files are fatal.
func FromConfig(ctx context.Context, cfg Config, client *http.Client, errw io.Writer) (*Scorer, error) {
	var tiers []Tier
	if cfg.TiersFile != "" {
		t, err := LoadTiersFile(cfg.TiersFile)
		if err != nil {
			return nil, err
		}
		tiers = t
	}

	var dois []string
	if cfg.RetractionsFile != "" {
		d, err := LoadRetractionsFile(cfg.RetractionsFile)
		if err != nil {
			return nil, err
		}
		dois = append(dois, d...)
	}
	if cfg.RegistryURL != "" {
		d, err := FetchRegistry(ctx, client, cfg.RegistryURL)
		if err != nil {
			fmt.Fprintf(errw, "warning: remote retraction registry unavailable: %v\n", err)
		} else {
			dois = append(dois, d...)
		}
	}

	return NewScorer(tiers, nil, NewRegistry(dois)), nil
}

// Config mirrors types.CredibilityConfig without importing pkg/types,
// keeping this package free of the run model.
type Config struct {
	TiersFile       string
	RetractionsFile string
	RegistryURL     string
}
