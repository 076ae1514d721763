package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MrMartinM/webcon-import/pkg/ledger"
	"github.com/MrMartinM/webcon-import/pkg/logger"
	"github.com/MrMartinM/webcon-import/pkg/mapping"
	"github.com/MrMartinM/webcon-import/pkg/webcon"
)

// maxStoredFailures caps the per-row failure list kept for the end-of-run
// summary; the ledger file carries the full record
const maxStoredFailures = 100

// maxErrorMessageLen caps the error text written to the ledger
const maxErrorMessageLen = 1000

// ElementCreator is the slice of the API client the driver needs
type ElementCreator interface {
	Authenticate(ctx context.Context) error
	CreateElement(ctx context.Context, element *webcon.ElementRequest) (*webcon.ElementResponse, error)
}

// Options carries the identifiers stamped onto every created element
type Options struct {
	WorkflowGuid       string
	FormTypeGuid       string
	BusinessEntityGuid string
	ItemListGuid       string
	ItemListName       string
	DryRun             bool
}

// Failure is one row-level error kept for the summary
type Failure struct {
	RowID   string
	Message string
}

// Summary aggregates the outcome of one run
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []Failure
}

// Importer drives the row import: it loads the ledger, iterates rows,
// skips completed ones, builds payloads, calls the API and records per-row
// outcomes. Rows are processed strictly sequentially with one call
// outstanding at a time.
type Importer struct {
	client   ElementCreator
	ledger   *ledger.Ledger
	observer Observer
	opts     Options
	log      *logger.Logger
}

// New creates an importer. A nil observer disables progress reporting.
func New(client ElementCreator, statusLedger *ledger.Ledger, observer Observer, opts Options, log *logger.Logger) *Importer {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Importer{
		client:   client,
		ledger:   statusLedger,
		observer: observer,
		opts:     opts,
		log:      log,
	}
}

// Run processes every row in the import set. Row-level failures are
// recorded in the ledger and never abort the run; configuration,
// authentication and mapping failures do. On cancellation it returns
// context.Canceled together with the summary accumulated so far.
func (imp *Importer) Run(ctx context.Context, set *mapping.ImportSet) (*Summary, error) {
	runID := uuid.New().String()
	log := imp.log.WithRun(runID)

	summary := &Summary{}

	mappings := mapping.FilterMappings(set.Mappings)
	if len(mappings) == 0 {
		return summary, fmt.Errorf("no usable field mappings: every mapping is missing a field GUID or database name")
	}
	detailMappings := mapping.FilterDetailMappings(set.DetailMappings)
	filtered := &mapping.ImportSet{
		Rows:           set.Rows,
		Mappings:       mappings,
		DetailMappings: detailMappings,
		DetailRows:     set.DetailRows,
		IDColumn:       set.IDColumn,
	}

	if !imp.opts.DryRun {
		if err := imp.ledger.WriteStart(); err != nil {
			return summary, fmt.Errorf("failed to open ledger: %w", err)
		}
		defer func() {
			// Best effort: a failing end marker must not mask the outcome
			if err := imp.ledger.WriteEnd(); err != nil {
				log.Errorf("Failed to write ledger end marker: %v", err)
			}
		}()

		if err := imp.client.Authenticate(ctx); err != nil {
			return summary, fmt.Errorf("authentication failed: %w", err)
		}
	}

	statuses := imp.ledger.Load()
	log.Infof("Loaded ledger with %d prior entries, importing %d rows with %d mapped fields",
		len(statuses), len(filtered.Rows), len(mappings))

	cancelled := func() bool {
		return ctx.Err() != nil || imp.observer.IsCancelled()
	}

	total := len(filtered.Rows)
	for i, row := range filtered.Rows {
		// Positional fallback keeps the row importable, but resumability
		// is lost if the input order changes between runs.
		rowID := strings.TrimSpace(row.ID)
		if rowID == "" {
			rowID = strconv.Itoa(i + 1)
		}
		row.ID = rowID

		if cancelled() {
			log.Infof("Cancellation requested, stopping before row %s", rowID)
			return summary, context.Canceled
		}

		if entry, ok := statuses[rowID]; ok && ledger.IsImported(entry) {
			summary.Processed++
			summary.Skipped++
			log.Debugf("Row %s already imported on %s, skipping", rowID, entry.ImportedDate)
			imp.notify(summary, total, rowID)
			continue
		}

		if cancelled() {
			log.Infof("Cancellation requested, stopping before row %s", rowID)
			return summary, context.Canceled
		}

		element, ok := imp.buildElement(filtered, row, cancelled)
		if !ok {
			log.Infof("Cancellation requested while building payload for row %s", rowID)
			return summary, context.Canceled
		}

		callErr := imp.create(ctx, rowID, element)

		// A row whose outcome races a cancellation request is left
		// unrecorded; the next run reprocesses it.
		if cancelled() {
			log.Infof("Cancellation requested during row %s, stopping", rowID)
			return summary, context.Canceled
		}

		summary.Processed++
		if callErr != nil {
			summary.Failed++
			message := truncateMessage(callErr.Error())
			log.Errorf("Row %s failed: %s", rowID, message)
			if len(summary.Failures) < maxStoredFailures {
				summary.Failures = append(summary.Failures, Failure{RowID: rowID, Message: message})
			}
			imp.record(rowID, ledger.StatusError, message)
		} else {
			summary.Succeeded++
			log.Debugf("Row %s imported", rowID)
			imp.record(rowID, ledger.StatusSuccess, "")
		}

		imp.notify(summary, total, rowID)
	}

	log.Infof("Run finished: %d processed, %d succeeded, %d failed, %d skipped",
		summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
	for _, f := range summary.Failures {
		log.Warnf("Row %s: %s", f.RowID, f.Message)
	}

	return summary, nil
}

// create performs the API call for one row, or simulates it in dry-run mode
func (imp *Importer) create(ctx context.Context, rowID string, element *webcon.ElementRequest) error {
	if imp.opts.DryRun {
		imp.log.Infof("Dry run: would create element for row %s with %d fields", rowID, len(element.FormFields))
		return nil
	}

	created, err := imp.client.CreateElement(ctx, element)
	if err != nil {
		return err
	}
	if created.Number != "" {
		imp.log.Debugf("Row %s created element %s", rowID, created.Number)
	}
	return nil
}

// record writes one row outcome to the ledger. A failing write is logged
// and the run continues: the row is simply reprocessed on the next run.
func (imp *Importer) record(rowID, status, message string) {
	if imp.opts.DryRun {
		return
	}
	if err := imp.ledger.Update(rowID, status, message); err != nil {
		imp.log.Errorf("Failed to record status for row %s: %v", rowID, err)
	}
}

// notify emits a progress notification after a row reaches a terminal state
func (imp *Importer) notify(summary *Summary, total int, rowID string) {
	imp.observer.OnProgress(summary.Processed, total, rowID, summary.Succeeded, summary.Failed, summary.Skipped)
}

// truncateMessage bounds the error text stored per row
func truncateMessage(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= maxErrorMessageLen {
		return message
	}
	return message[:maxErrorMessageLen]
}
