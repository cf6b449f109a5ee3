// Package fixtures holds the demo catalog used by the seed command and tests.
package fixtures

import (
	"time"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
)

// Repeats is how many times the base catalog is repeated by InitialProducts.
const Repeats = 10

var baseCatalog = []domain.Product{
	{
		Label:       "atari",
		Description: "the good old atari console",
		Price:       5,
		Stock:       50,
		Category:    "electronics",
	},
	{
		Label:       "How Linux Works",
		Description: "what every superuser should know",
		Price:       29,
		Stock:       100,
		Category:    "books",
	},
	{
		Label:       "PlayStation 5",
		Description: "The all new PS5",
		Price:       500,
		Stock:       600,
		Category:    "electronics",
	},
	{
		Label:       "Mastering Bitcoin",
		Description: "The bitcoin bible for developers",
		Price:       23,
		Stock:       1000,
		Category:    "books",
	},
	{
		Label:       "Dragon Ball Goku Gi",
		Description: "The familiar Gi worn by the sayian earthling, fine clothe",
		Price:       99,
		Stock:       19,
		Category:    "clothing",
	},
}

// InitialProducts returns fresh copies of the base catalog repeated Repeats
// times. Created times increase by one millisecond per product starting at start,
// so "newest" ordering is deterministic.
func InitialProducts(start time.Time) []domain.Product {
	out := make([]domain.Product, 0, len(baseCatalog)*Repeats)
	for i := 0; i < Repeats; i++ {
		for _, p := range baseCatalog {
			p.Created = start.Add(time.Duration(len(out)) * time.Millisecond).UTC()
			p.Reviews = []domain.Review{}
			out = append(out, p)
		}
	}
	return out
}
