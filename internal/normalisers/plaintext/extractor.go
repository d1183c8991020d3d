// Package plaintext reads text files as pages. Form feeds act as page
// breaks; a file without them is a single page.
package plaintext

import (
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// ExtractPages reads the text file at path and splits it on form-feed
// characters into numbered pages.
func ExtractPages(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	parts := strings.Split(string(data), "\f")
	pages := make([]domain.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, domain.Page{Number: i + 1, Text: part})
	}
	return pages, nil
}
