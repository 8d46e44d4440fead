// Package stats computes derived statistics over the full page listing.
package stats

import (
	"errors"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/resolver"
)

// PageStat names a page together with the timestamp that put it in an
// extremum slot.
type PageStat struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
}

// GraphStatistics is a point-in-time, best-effort snapshot. It is computed
// from one pass over the listing plus per-page file stats and is not
// transactionally consistent with the graph.
type GraphStatistics struct {
	TotalPages      int       `json:"total_pages"`
	TotalSizeBytes  int64     `json:"total_size_bytes"`
	JournalPages    int       `json:"journal_pages"`
	RegularPages    int       `json:"regular_pages"`
	UnresolvedPages int       `json:"unresolved_pages"`
	OldestPage      *PageStat `json:"oldest_page,omitempty"`
	NewestPage      *PageStat `json:"newest_page,omitempty"`
}

// Compute aggregates the listing in a single pass. Pages whose file cannot
// be resolved are counted but excluded from size and extrema; an empty
// listing yields zeros with absent extrema, not an error.
func Compute(pages []logseq.Page, res *resolver.Resolver) (*GraphStatistics, error) {
	out := &GraphStatistics{TotalPages: len(pages)}

	for _, page := range pages {
		if page.Journal {
			out.JournalPages++
		} else {
			out.RegularPages++
		}

		loc, err := res.Resolve(page.Name)
		if err != nil {
			if errors.Is(err, apperr.NotFound("")) {
				out.UnresolvedPages++
				continue
			}
			return nil, err
		}
		meta, err := res.Metadata(loc.Path)
		if err != nil {
			if errors.Is(err, apperr.NotFound("")) {
				// Deleted between resolve and stat; treat as unresolved.
				out.UnresolvedPages++
				continue
			}
			return nil, err
		}

		out.TotalSizeBytes += meta.SizeBytes

		// First entry wins exact ties, so only strictly better
		// timestamps displace the current holder.
		if out.OldestPage == nil || meta.Created.Before(out.OldestPage.Time) {
			out.OldestPage = &PageStat{Name: page.Name, Time: meta.Created}
		}
		if out.NewestPage == nil || meta.Modified.After(out.NewestPage.Time) {
			out.NewestPage = &PageStat{Name: page.Name, Time: meta.Modified}
		}
	}
	return out, nil
}
