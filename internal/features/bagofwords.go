// Package features produces the documents cached for each record: a bag of
// lowercase word counts per text.
package features

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zcline91/spam-filter/internal/doccache"
)

// Bag is the decoded form of a document.
type Bag struct {
	Tokens int            `json:"tokens"`
	Counts map[string]int `json:"counts"`
}

// BagOfWords is a doccache.Engine that counts the tokens of each input.
type BagOfWords struct {
	tokenizer *Tokenizer
	batchSize int
	workers   int
	logger    *slog.Logger
}

// Options configures BagOfWords.
type Options struct {
	BatchSize int
	Workers   int
	Tokenizer TokenizerOptions
}

// NewBagOfWords creates the engine. BatchSize defaults to 2000 and Workers
// to 4.
func NewBagOfWords(opts Options) *BagOfWords {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 2000
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &BagOfWords{
		tokenizer: NewTokenizer(opts.Tokenizer),
		batchSize: opts.BatchSize,
		workers:   opts.Workers,
		logger:    slog.Default(),
	}
}

// Process tokenizes inputs in batches, several batches at a time. Each
// document keeps the identifier of its input.
func (b *BagOfWords) Process(ctx context.Context, inputs []doccache.Input) ([]doccache.Document, error) {
	docs := make([]doccache.Document, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for lo := 0; lo < len(inputs); lo += b.batchSize {
		hi := min(lo+b.batchSize, len(inputs))
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				payload, err := Encode(b.Count(inputs[i].Text))
				if err != nil {
					return fmt.Errorf("encoding %s: %w", inputs[i].ID, err)
				}
				docs[i] = doccache.Document{ID: inputs[i].ID, Payload: payload}
			}
			b.logger.Debug("document batch done", "from", lo, "to", hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Count builds the bag of text.
func (b *BagOfWords) Count(text string) Bag {
	tokens := b.tokenizer.Tokenize(text)
	bag := Bag{Tokens: len(tokens), Counts: make(map[string]int, len(tokens))}
	for _, t := range tokens {
		bag.Counts[t]++
	}
	return bag
}

// Encode serializes a bag as a document payload.
func Encode(bag Bag) ([]byte, error) {
	return json.Marshal(bag)
}

// Decode reads a document payload.
func Decode(payload []byte) (Bag, error) {
	var bag Bag
	if err := json.Unmarshal(payload, &bag); err != nil {
		return Bag{}, fmt.Errorf("decoding document: %w", err)
	}
	if bag.Counts == nil {
		bag.Counts = map[string]int{}
	}
	return bag, nil
}
