package pipeline

import (
	"time"

	"github.com/maltedev/price-monitor/internal/models"
)

type Report struct {
	RunID       string                 `json:"run_id"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  time.Time              `json:"finished_at"`
	Duration    time.Duration          `json:"duration_ns"`
	Products    int                    `json:"products"`
	OK          int                    `json:"ok"`
	NoOffers    int                    `json:"no_offers"`
	FetchFailed int                    `json:"fetch_failed"`
	ParseFailed int                    `json:"parse_failed"`
	Offers      int                    `json:"offers"`
	RowsWritten int                    `json:"rows_written"`
	FailedURLs  []string               `json:"failed_urls"`
	SourceError string                 `json:"source_error,omitempty"`
	SinkError   string                 `json:"sink_error,omitempty"`
	Results     []models.ProductResult `json:"results"`
}

func (r *Report) add(outcomes []models.Outcome, logEmpty bool) {
	for _, o := range outcomes {
		switch o.Status {
		case models.OutcomeOK:
			r.OK++
		case models.OutcomeNoOffers:
			r.NoOffers++
		case models.OutcomeFetchFailed:
			r.FetchFailed++
		case models.OutcomeParseFailed:
			r.ParseFailed++
		}
	}

	results, failed := Collect(outcomes, logEmpty)
	for _, res := range results {
		r.Offers += len(res.Offers)
	}
	r.Results = append(r.Results, results...)
	r.FailedURLs = append(r.FailedURLs, failed...)
}

// Collect splits outcomes into the results to persist and the URLs for the
// failed log. Pages without offers are results; with logEmpty they are also
// listed as failed.
func Collect(outcomes []models.Outcome, logEmpty bool) ([]models.ProductResult, []string) {
	var (
		results []models.ProductResult
		failed  []string
	)

	for _, o := range outcomes {
		if o.Failed() || (logEmpty && o.Status == models.OutcomeNoOffers) {
			failed = append(failed, o.URL)
		}
		if o.Result != nil && !o.Failed() {
			results = append(results, *o.Result)
		}
	}

	return results, failed
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}
