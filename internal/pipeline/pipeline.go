package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"sumgen/internal/dataset"
	"sumgen/internal/output"
	"sumgen/internal/postproc"
	"sumgen/internal/summarizer"
)

// Pipeline drives batched summarization: fixed-size batches in dataset
// order, one cleaned summary line written per record.
type Pipeline struct {
	summarizer summarizer.Summarizer
	batchSize  int
	log        *slog.Logger
}

func New(
	s summarizer.Summarizer,
	batchSize int,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		summarizer: s,
		batchSize:  batchSize,
		log:        log,
	}
}

// Run summarizes every record and writes the summaries in dataset order.
// It returns the number of lines written; on error the output holds
// exactly the batches completed before the failure.
func (p *Pipeline) Run(
	ctx context.Context,
	records []dataset.Record,
	out *output.Writer,
) (int, error) {
	total := dataset.BatchCount(len(records), p.batchSize)

	batch := 0
	written := 0
	for chunk := range dataset.Batches(records, p.batchSize) {
		batch++

		if err := ctx.Err(); err != nil {
			return written, err
		}

		documents := make([]string, len(chunk))
		for i, record := range chunk {
			document, err := record.Document()
			if err != nil {
				return written, fmt.Errorf("record %d: %w", written+i+1, err)
			}
			documents[i] = document
		}

		summaries, err := p.summarizer.Summarize(ctx, documents)
		if err != nil {
			return written, fmt.Errorf("summarize batch %d/%d: %w", batch, total, err)
		}
		if len(summaries) != len(documents) {
			return written, fmt.Errorf(
				"summarizer returned %d summaries for %d documents in batch %d/%d",
				len(summaries),
				len(documents),
				batch,
				total,
			)
		}

		for _, summary := range summaries {
			if err := out.WriteLine(postproc.Clean(summary)); err != nil {
				return written, err
			}
			written++
		}

		p.log.InfoContext(ctx, "Batch is summarized",
			"batch", batch,
			"batches", total,
			"records", written)
	}

	return written, nil
}
