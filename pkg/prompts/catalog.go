// Package prompts provides the catalog of sample prompts offered next to the
// chat input. Picking a sample prompt submits it like typed text.
package prompts

import (
	"errors"
	"fmt"
)

// ErrPromptNotFound is returned when a sample prompt index is out of range.
var ErrPromptNotFound = errors.New("sample prompt not found")

// Category is a titled group of sample prompts.
type Category struct {
	Name    string   `json:"name" toml:"name" mapstructure:"name"`
	Prompts []string `json:"prompts" toml:"prompts" mapstructure:"prompts"`
}

// Entry is a sample prompt with its flat, 1-based index.
type Entry struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

// Catalog is an ordered, read-only set of sample prompt categories.
type Catalog struct {
	categories []Category
	entries    []Entry
}

// NewCatalog creates a Catalog. Categories without prompts are dropped.
func NewCatalog(categories []Category) *Catalog {
	c := &Catalog{}
	for _, cat := range categories {
		if len(cat.Prompts) == 0 {
			continue
		}

		kept := Category{Name: cat.Name, Prompts: append([]string(nil), cat.Prompts...)}
		c.categories = append(c.categories, kept)
		for _, p := range kept.Prompts {
			c.entries = append(c.entries, Entry{
				Index:    len(c.entries) + 1,
				Category: kept.Name,
				Prompt:   p,
			})
		}
	}
	return c
}

// DefaultCategories returns the built in sample prompts.
func DefaultCategories() []Category {
	return []Category{
		{
			Name: "Taxation",
			Prompts: []string{
				"What are the key take aways for corporate tax in 2024",
				"What is the new Indirect Tax rate",
			},
		},
		{
			Name: "IPO",
			Prompts: []string{
				"What are the key accounting challenges when it comes to an IPO",
				"How can Crowe help my company with an IPO",
			},
		},
		{
			Name: "Investing in Malaysia",
			Prompts: []string{
				"What is the cost of forming a business in Malaysia",
				"What are the tax incentives available when investing in Malaysia",
			},
		},
	}
}

// Default returns a Catalog of DefaultCategories.
func Default() *Catalog {
	return NewCatalog(DefaultCategories())
}

// Categories returns a copy of the catalog's categories.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Prompts: append([]string(nil), cat.Prompts...)}
	}
	return out
}

// Entries returns every prompt in display order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of prompts in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the prompt at the flat, 1-based index.
func (c *Catalog) Lookup(index int) (string, error) {
	if index < 1 || index > len(c.entries) {
		return "", fmt.Errorf("%w: %d (have %d)", ErrPromptNotFound, index, len(c.entries))
	}
	return c.entries[index-1].Prompt, nil
}
