// Package extract implements the first pipeline stage: one PDF in, one raw
// factsheet JSON artifact out.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/fic"
	"github.com/ficlab/fic-etl/internal/gemini"
	"github.com/ficlab/fic-etl/internal/whisper"
)

type Processor struct {
	logger     *slog.Logger
	texts      TextExtractor
	structurer Structurer
	outputDir  string
	maxRetries int
	backoff    time.Duration
}

type Option func(*Processor)

// WithMaxRetries bounds in-process attempts for retryable collaborator
// failures. Terminal failures are never retried.
func WithMaxRetries(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxRetries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.backoff = d
		}
	}
}

func NewProcessor(texts TextExtractor, structurer Structurer, outputDir string, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:     logger,
		texts:      texts,
		structurer: structurer,
		outputDir:  outputDir,
		maxRetries: 3,
		backoff:    time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process extracts text from one PDF, structures it into a raw document,
// validates the shape and writes <stem>.json into the output directory.
// Returns the artifact path.
func (p *Processor) Process(ctx context.Context, item batch.Item) (string, error) {
	text, err := p.withRetry(ctx, item.Key, "whisper", func() (string, error) {
		return p.texts.ExtractText(ctx, item.Path)
	})
	if err != nil {
		return "", classify(err)
	}

	raw, err := p.withRetry(ctx, item.Key, "gemini", func() (string, error) {
		out, err := p.structurer.StructureText(ctx, text)
		return string(out), err
	})
	if err != nil {
		return "", classify(err)
	}

	doc := []byte(raw)
	if err := fic.ValidateJSONAgainstSchema(fic.BuildRawSchema(), doc); err != nil {
		return "", batch.NewError(batch.KindValidation, err)
	}
	var parsed fic.RawDocument
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return "", batch.NewError(batch.KindValidation, fmt.Errorf("decode raw document: %w", err))
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", batch.NewError(batch.KindIO, err)
	}
	stem := strings.TrimSuffix(item.Key, filepath.Ext(item.Key))
	outPath := filepath.Join(p.outputDir, stem+".json")
	if err := os.WriteFile(outPath, doc, 0o644); err != nil {
		return "", batch.NewError(batch.KindIO, err)
	}

	p.logger.Info("extract.artifact.written",
		"key", item.Key, "path", outPath, "fund", parsed.FIC.NombreFIC)
	return outPath, nil
}

// withRetry runs call up to maxRetries times with exponential backoff,
// retrying only failures the collaborator marks as transient.
func (p *Processor) withRetry(ctx context.Context, key, collaborator string, call func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			wait := p.backoff << (attempt - 1)
			p.logger.Warn("extract.retry",
				"key", key, "collaborator", collaborator,
				"attempt", attempt+1, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("all %d attempts failed: %w", p.maxRetries, lastErr)
}

func isRetryable(err error) bool {
	var we *whisper.APIError
	if errors.As(err, &we) {
		return we.Retryable()
	}
	var ge *gemini.APIError
	if errors.As(err, &ge) {
		return ge.Retryable()
	}
	return false
}

// classify maps collaborator and filesystem errors into the stage failure
// taxonomy.
func classify(err error) error {
	var be *batch.Error
	if errors.As(err, &be) {
		return err
	}
	var we *whisper.APIError
	if errors.As(err, &we) {
		if we.Retryable() {
			return batch.NewRetryable(err)
		}
		return batch.NewError(batch.KindExternalService, err)
	}
	var ge *gemini.APIError
	if errors.As(err, &ge) {
		if ge.Retryable() {
			return batch.NewRetryable(err)
		}
		return batch.NewError(batch.KindExternalService, err)
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return batch.NewError(batch.KindIO, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return batch.NewError(batch.KindTimeout, err)
	}
	return batch.NewError(batch.KindExternalService, err)
}
