package infrastructure

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"codeDuelWs/internal/modules/race/domain"
)

// ErrEmptyTextPool rejects construction of a pool with no usable snippets.
var ErrEmptyTextPool = errors.New("text pool is empty")

// defaultSnippets seeds the pool when no external file is configured.
var defaultSnippets = []string{
	"const sum = (a, b) => a + b;",
	"function binarySearch(arr, target) { let left = 0; let right = arr.length - 1; }",
	"import React, { useState, useEffect } from 'react';",
	"console.log('Hello World');",
	"const [data, setData] = useState(null);",
}

// TextPool is the external race-text source: a fixed set of snippets with
// independent uniform draws. The same text may be drawn twice in a row.
type TextPool struct {
	snippets []string
}

// NewTextPool builds a pool from the given snippets, dropping blanks.
func NewTextPool(snippets []string) (*TextPool, error) {
	cleaned := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyTextPool
	}
	return &TextPool{snippets: cleaned}, nil
}

// LoadTextPool reads a JSON string array from path, falling back to the
// built-in snippets when path is empty.
func LoadTextPool(path string) (*TextPool, error) {
	if strings.TrimSpace(path) == "" {
		return NewTextPool(defaultSnippets)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text pool: %w", err)
	}
	var snippets []string
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, fmt.Errorf("decode text pool: %w", err)
	}
	return NewTextPool(snippets)
}

// Pick draws one snippet uniformly at random.
func (p *TextPool) Pick() string {
	return p.snippets[rand.Intn(len(p.snippets))]
}

// Supplier adapts the pool to the domain's text supplier contract.
func (p *TextPool) Supplier() domain.TextSupplier {
	return p.Pick
}

// Size returns the number of snippets in the pool.
func (p *TextPool) Size() int {
	return len(p.snippets)
}
