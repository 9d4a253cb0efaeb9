package extract

import "context"

// TextExtractor is the first collaborator: document file -> plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Structurer is the second collaborator: plain text -> raw factsheet JSON.
type Structurer interface {
	StructureText(ctx context.Context, text string) ([]byte, error)
}
