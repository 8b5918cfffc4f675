// Package engine executes declarative tabular operation plans over in-memory
// datasets. Each operator validates its inputs before touching any row, so an
// operation either applies in full or fails the whole pipeline with a single
// descriptive error.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/rowpipe/rowpipe/internal/coerce"
	"github.com/rowpipe/rowpipe/internal/config"
	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/parallel"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/units"
	"github.com/rowpipe/rowpipe/internal/value"
)

// Engine executes operation plans. It is safe for concurrent use; all
// per-execution state lives on the stack of Execute.
type Engine struct {
	logger    *slog.Logger
	cfg       config.Config
	converter *units.Converter
	printer   *message.Printer
	pool      *parallel.WorkerPool
	now       func() time.Time
}

// New creates an engine. A nil logger falls back to slog.Default and a nil
// converter disables unit conversion support (convertUnits operations will
// fail their probe).
func New(cfg config.Config, logger *slog.Logger, converter *units.Converter) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	tag, err := language.Parse(cfg.DefaultLocale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		converter: converter,
		printer:   message.NewPrinter(tag),
		pool:      parallel.NewWorkerPool(cfg.WorkerCount),
		now:       time.Now,
	}
}

// WithClock pins the engine's notion of the current time. Relative date
// keywords in dateDiff resolve against it.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Close releases the engine's worker pool.
func (e *Engine) Close() {
	e.pool.Close()
}

// Result is the outcome of a full plan execution. Dataset carries the header
// row first, then the transformed data rows.
type Result struct {
	Dataset   value.Dataset
	OpsString string
	EnOps     string
	Warnings  []string
}

// opResult is a single operator's contribution: the replacement dataset, a
// narration fragment, schema changes, and any non-fatal warnings.
type opResult struct {
	dataset        value.Dataset
	enOp           string
	newColumns     []string
	replaceColumns bool
	warnings       []string
}

// Execute runs every operation of the plan in order against rows. columnNames
// must match the row width. The returned dataset is only published on full
// success; any operation failure aborts the pipeline with no partial state.
func (e *Engine) Execute(ctx context.Context, columnNames []string, rows value.Dataset, p *plan.Plan) (*Result, error) {
	log := e.logger.With(
		"execution", uuid.NewString(),
		"rows", len(rows),
		"columns", len(columnNames),
	)
	if encoded, err := json.Marshal(p); err == nil {
		logged := string(encoded)
		if e.cfg.RedactValues {
			logged = plan.Redact(logged)
		}
		log.Info("executing plan", "operations", len(p.Operations), "plan", logged)
	}

	dataset := rows
	names := append([]string(nil), columnNames...)
	normCols := coerce.NormalizeColumns(names)

	var opsString strings.Builder
	opsString.WriteString("The following operations were performed on a dataset of ")
	opsString.WriteString(e.formatInt(len(rows)))
	opsString.WriteString(pluralRows(len(rows)))
	opsString.WriteString(" and ")
	opsString.WriteString(e.formatInt(len(names)))
	if len(names) == 1 {
		opsString.WriteString(" column")
	} else {
		opsString.WriteString(" columns")
	}
	opsString.WriteString(": | ")
	opsString.WriteString(strings.Join(names, " | "))
	opsString.WriteString(" |\n\n")

	var enOps strings.Builder
	var warnings []string

	for _, operation := range discardPartialDrops(p.Operations) {
		start := time.Now()
		r, err := e.executeOperation(ctx, dataset, normCols, operation)
		if err != nil {
			log.Error("operation failed", "op", operation.Name(), "err", err)
			return nil, err
		}
		log.Debug("operation complete",
			"op", operation.Name(), "elapsed", time.Since(start), "rows", len(r.dataset))

		dataset = r.dataset
		enOps.WriteString(r.enOp)
		if len(r.newColumns) > 0 {
			if r.replaceColumns {
				names = r.newColumns
			} else {
				names = append(names, r.newColumns...)
			}
			normCols = coerce.NormalizeColumns(names)
		}
		warnings = append(warnings, r.warnings...)
	}

	final := make(value.Dataset, 0, len(dataset)+1)
	final = append(final, value.HeaderRow(names))
	final = append(final, dataset...)

	narration := strings.TrimSpace(enOps.String())
	opsString.WriteString(narration)
	opsString.WriteString("\nThis resulted in a table of ")
	opsString.WriteString(e.formatInt(len(dataset)))
	opsString.WriteString(pluralRows(len(dataset)))

	return &Result{
		Dataset:   final,
		OpsString: opsString.String(),
		EnOps:     narration,
		Warnings:  warnings,
	}, nil
}

func (e *Engine) executeOperation(ctx context.Context, ds value.Dataset, normCols []string, operation plan.Operation) (*opResult, error) {
	switch op := operation.(type) {
	case *plan.FilterOp:
		return e.filterOp(ds, normCols, op)
	case *plan.GroupByOp:
		return e.groupByOp(ds, normCols, op)
	case *plan.OrderByOp:
		return e.orderByOp(ds, normCols, op)
	case *plan.SelectOp:
		return e.selectOp(ds, normCols, op)
	case *plan.MapColumnOp:
		return e.mapColumnOp(ds, normCols, op)
	case *plan.CombineColumnsOp:
		return e.combineColumnsOp(ds, normCols, op)
	case *plan.ConvertUnitsOp:
		return e.convertUnitsOp(ctx, ds, normCols, op)
	case *plan.DateDiffOp:
		return e.dateDiffOp(ds, normCols, op)
	case *plan.FormatDatesOp:
		return e.formatDatesOp(ds, normCols, op)
	case *plan.UnwindArrayOp:
		return e.unwindArrayOp(ds, normCols, op)
	case *plan.LimitOp:
		return e.limitOp(ds, op)
	case *plan.OffsetOp:
		return e.offsetOp(ds, op)
	case *plan.DropOp:
		return &opResult{dataset: value.Dataset{}, enOp: "- drop all rows\n"}, nil
	}
	return nil, errors.NewUnknownOperationError(operation.Name())
}

// discardPartialDrops strips drop operations out of multi-operation plans.
// A drop only empties the dataset when it is the entire plan.
func discardPartialDrops(ops []plan.Operation) []plan.Operation {
	if len(ops) <= 1 {
		return ops
	}
	kept := make([]plan.Operation, 0, len(ops))
	for _, op := range ops {
		if _, isDrop := op.(*plan.DropOp); isDrop {
			continue
		}
		kept = append(kept, op)
	}
	return kept
}

func (e *Engine) formatInt(n int) string {
	return e.printer.Sprint(number.Decimal(n))
}

func pluralRows(n int) string {
	if n == 1 {
		return " row"
	}
	return " rows"
}

// mapRows applies fn to every row, preserving input order. Large datasets
// fan out across the engine's worker pool.
func mapRows[R any](e *Engine, ds value.Dataset, fn func(int, value.Row) R) []R {
	if len(ds) == 0 {
		return nil
	}
	if parallel.ShouldParallelize(len(ds), e.cfg.ParallelThreshold) {
		return parallel.ProcessIndexed(e.pool, ds, fn)
	}
	out := make([]R, len(ds))
	for i, row := range ds {
		out[i] = fn(i, row)
	}
	return out
}
