package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jobpulse/jobpulse/plugin/scraper/remoteok"
	"github.com/jobpulse/jobpulse/plugin/textextract"
	"github.com/jobpulse/jobpulse/store"
)

const (
	// Sentinels for source records that omit a field.
	UnknownTitle    = "Unknown Title"
	UnknownCompany  = "Unknown"
	UnknownLocation = "Unknown"
)

// RawPosting is a scraped posting before normalization. Date is the
// source-reported timestamp in RFC 3339, possibly empty.
type RawPosting struct {
	Title       string
	Company     string
	Description string
	URL         string
	Location    string
	Date        string
}

// FromRemoteOKJob maps a RemoteOK API record onto a raw posting.
func FromRemoteOKJob(job *remoteok.Job) *RawPosting {
	return &RawPosting{
		Title:       job.Position,
		Company:     job.Company,
		Description: job.Description,
		URL:         job.URL,
		Location:    job.Location,
		Date:        job.Date,
	}
}

// Result counts the outcome of a bulk ingest.
type Result struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Service normalizes raw scraped postings and inserts them into the
// record store. Insertion is idempotent: the posting id is a content
// hash of the description, so re-running ingestion over overlapping
// source data only counts duplicates as skipped.
type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Normalize fills sentinel defaults, converts the HTML description to
// plain text, and parses the source date. It returns nil for records
// with an empty description, which have no usable dedup key or
// embedding text. The posting id is derived from the extracted text,
// so the same description under different HTML wrappers still dedups.
func (s *Service) Normalize(raw *RawPosting) *store.Posting {
	description := textextract.ExtractText(raw.Description)
	if description == "" {
		return nil
	}

	posting := &store.Posting{
		Title:       strings.TrimSpace(raw.Title),
		Company:     strings.TrimSpace(raw.Company),
		Description: description,
		URL:         strings.TrimSpace(raw.URL),
		Location:    strings.TrimSpace(raw.Location),
	}
	if posting.Title == "" {
		posting.Title = UnknownTitle
	}
	if posting.Company == "" {
		posting.Company = UnknownCompany
	}
	if posting.Location == "" {
		posting.Location = UnknownLocation
	}
	if raw.Date != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Date); err == nil {
			unix := ts.Unix()
			posting.PostedTs = &unix
		} else {
			slog.Warn("unparseable posting date", "date", raw.Date, "url", posting.URL)
		}
	}
	return posting
}

// Ingest normalizes and inserts a batch. One bad record never aborts
// the batch.
func (s *Service) Ingest(ctx context.Context, raws []*RawPosting) (*Result, error) {
	result := &Result{}
	for _, raw := range raws {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		posting := s.Normalize(raw)
		if posting == nil {
			result.Skipped++
			continue
		}
		created, err := s.store.CreatePosting(ctx, posting)
		if err != nil {
			slog.Error("failed to insert posting", "url", posting.URL, "error", err)
			result.Failed++
			continue
		}
		if created {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	slog.Info("ingest finished",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}
