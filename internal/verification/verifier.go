// Package verification performs post-recommendation journal checks: ISSN
// checksum validation, quality-signal classification, and bounded-concurrency
// batch verification against the provider's source records.
package verification

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

// Status describes the verification outcome for one journal.
type Status string

const (
	// StatusVerified means the provider record was fetched and checks ran.
	StatusVerified Status = "verified"

	// StatusUnavailable means the provider lookup failed and checks could
	// not run. Not a judgement on the journal.
	StatusUnavailable Status = "verification unavailable"
)

// DefaultConcurrency bounds parallel provider lookups in a batch.
const DefaultConcurrency = 4

// Result is the verification outcome for one journal.
type Result struct {
	JournalID string
	Status    Status

	// ISSNValid reports the checksum outcome; meaningful only when the
	// journal carries an ISSN.
	ISSNValid bool

	// QualitySignals are positive indicators (doaj_listed, open_access,
	// established_venue, high_impact, valid_issn).
	QualitySignals []string

	// Issues are negative indicators worth surfacing to the author.
	Issues []string
}

// SourceGetter is the provider slice the verifier needs.
type SourceGetter interface {
	GetSource(ctx context.Context, id string) (*openalex.Source, error)
}

// Verifier checks recommended journals against fresh provider records.
type Verifier struct {
	provider    SourceGetter
	concurrency int64
	logger      zerolog.Logger
}

// New creates a verifier. concurrency <= 0 selects DefaultConcurrency.
func New(provider SourceGetter, concurrency int, logger zerolog.Logger) *Verifier {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Verifier{
		provider:    provider,
		concurrency: int64(concurrency),
		logger:      logger.With().Str("component", "verifier").Logger(),
	}
}

// VerifyBatch verifies journals with at most the configured number of
// concurrent provider lookups. Results preserve input order. A per-journal
// failure yields a StatusUnavailable result and never fails the batch.
func (v *Verifier) VerifyBatch(ctx context.Context, journals []domain.Journal) []Result {
	results := make([]Result, len(journals))
	sem := semaphore.NewWeighted(v.concurrency)
	var wg sync.WaitGroup

	for i := range journals {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled: mark the rest unavailable.
			for k := i; k < len(journals); k++ {
				results[k] = Result{JournalID: journals[k].ID, Status: StatusUnavailable}
			}
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx] = v.Verify(ctx, journals[idx])
		}(i)
	}

	wg.Wait()
	return results
}

// Verify runs the checks for one journal.
func (v *Verifier) Verify(ctx context.Context, j domain.Journal) Result {
	res := Result{JournalID: j.ID}

	src, err := v.provider.GetSource(ctx, j.ID)
	if err != nil {
		v.logger.Debug().Err(err).Str("journal_id", j.ID).Msg("source lookup failed")
		res.Status = StatusUnavailable
		return res
	}
	res.Status = StatusVerified

	issn := j.ISSN
	if issn == "" {
		issn = src.ISSNL
	}
	if issn != "" {
		res.ISSNValid = ValidateISSN(issn)
		if res.ISSNValid {
			res.QualitySignals = append(res.QualitySignals, "valid_issn")
		} else {
			res.Issues = append(res.Issues, "issn checksum failed")
		}
	} else {
		res.Issues = append(res.Issues, "no issn on record")
	}

	if src.IsInDOAJ {
		res.QualitySignals = append(res.QualitySignals, "doaj_listed")
	}
	if src.IsOA {
		res.QualitySignals = append(res.QualitySignals, "open_access")
	}
	if src.WorksCount > 1000 {
		res.QualitySignals = append(res.QualitySignals, "established_venue")
	} else if src.WorksCount < 100 {
		res.Issues = append(res.Issues, "very small publication record")
	}
	if src.SummaryStats.HIndex > 100 {
		res.QualitySignals = append(res.QualitySignals, "high_impact")
	}
	if src.SummaryStats.HIndex == 0 && src.CitedByCount == 0 {
		res.Issues = append(res.Issues, "no citation metrics available")
	}

	return res
}

// ValidateISSN checks an ISSN's mod-11 checksum. Accepts the hyphenated
// form; the final position may be the roman numeral X standing for ten.
func ValidateISSN(issn string) bool {
	cleaned := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(issn)), "-", "")
	if len(cleaned) != 8 {
		return false
	}

	sum := 0
	for i := 0; i < 7; i++ {
		c := cleaned[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * (8 - i)
	}

	var check int
	switch c := cleaned[7]; {
	case c == 'X':
		check = 10
	case c >= '0' && c <= '9':
		check = int(c - '0')
	default:
		return false
	}

	expected := (11 - sum%11) % 11
	return check == expected
}
