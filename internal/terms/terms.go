// Package terms loads the list of search terms a run iterates over.
package terms

import (
	"errors"
	"fmt"

	"github.com/FranksOps/linkedscrap/pkg/lines"
)

// DefaultFile is the term list read when no path is configured.
const DefaultFile = "search-terms.txt"

// ErrNoTerms is returned when the term file holds no usable lines.
var ErrNoTerms = errors.New("no search terms")

// Load returns the search terms in path in file order. Blank lines and
// lines starting with '#' (after leading whitespace) are dropped. Terms are
// not deduplicated.
func Load(path string) ([]string, error) {
	if path == "" {
		path = DefaultFile
	}
	out, err := lines.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load search terms: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("load search terms from %s: %w", path, ErrNoTerms)
	}
	return out, nil
}
