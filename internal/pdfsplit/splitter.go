// Package pdfsplit cuts a multi-invoice source PDF into one document per
// invoice using the page numbers attributed to each invoice during OCR.
package pdfsplit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidPDF is returned when the source bytes cannot be read as a PDF.
var ErrInvalidPDF = errors.New("invalid source pdf")

func init() {
	api.DisableConfigDir()
}

// Target is one invoice's claim on pages of the source document.
// PageNumbers are 1-indexed and take precedence over PageNumber; a zero
// PageNumber means none was given.
type Target struct {
	Key         string
	PageNumbers []int
	PageNumber  int
}

// Pages returns the requested page list, or nil when the invoice carries no
// page attribution at all.
func (t Target) Pages() []int {
	if len(t.PageNumbers) > 0 {
		return t.PageNumbers
	}
	if t.PageNumber > 0 {
		return []int{t.PageNumber}
	}
	return nil
}

// Splitter produces per-invoice PDFs. It holds no state between calls and is
// safe for concurrent use.
type Splitter struct {
	concurrency int
}

// NewSplitter creates a Splitter that splits up to concurrency invoices in
// parallel. Values below 1 mean one at a time.
func NewSplitter(concurrency int) *Splitter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Splitter{concurrency: concurrency}
}

func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages in src.
func PageCount(src []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(src), newConf())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return n, nil
}

// Split returns one PDF per target keyed by Target.Key.
//
// The source is validated first and a malformed source fails the whole batch.
// A single target receives src itself. Otherwise each target gets a new
// document holding its pages in the order given, skipping pages outside the
// source. A target with no page attribution, or whose pages are all out of
// range, receives a copy of the whole source. src is never modified.
func (s *Splitter) Split(ctx context.Context, src []byte, targets []Target) (map[string][]byte, error) {
	total, err := PageCount(src)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(targets))
	if len(targets) == 1 {
		out[targets[0].Key] = src
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, t := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages := inRange(t.Pages(), total)
			var doc []byte
			if len(pages) == 0 {
				doc = bytes.Clone(src)
			} else {
				split, err := collect(src, pages)
				if err != nil {
					return fmt.Errorf("splitting pages %v for %s: %w", pages, t.Key, err)
				}
				doc = split
			}
			mu.Lock()
			out[t.Key] = doc
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func inRange(pages []int, total int) []int {
	var kept []int
	for _, p := range pages {
		if p >= 1 && p <= total {
			kept = append(kept, p)
		}
	}
	return kept
}

func collect(src []byte, pages []int) ([]byte, error) {
	sel := make([]string, len(pages))
	for i, p := range pages {
		sel[i] = strconv.Itoa(p)
	}
	var buf bytes.Buffer
	if err := api.Collect(bytes.NewReader(src), &buf, sel, newConf()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
