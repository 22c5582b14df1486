package runner

import (
	"fmt"
	"io"

	"github.com/joshuapare/hivebatch/internal/highlight"
	"github.com/joshuapare/hivebatch/internal/search"
	"github.com/joshuapare/hivebatch/pkg/hive"
)

// Query selects the searches to run on each hive. MinSize and Base64 take
// precedence, in that order, over the term searches, which are combined.
type Query struct {
	KeyName    string
	ValueName  string
	ValueData  string
	ValueSlack string
	MinSize    int
	Base64     int

	Mode search.Mode
	// SuppressData omits data and slack from data and slack hit lines.
	SuppressData bool
}

// Empty reports whether no search was requested.
func (q Query) Empty() bool {
	return q.KeyName == "" && q.ValueName == "" && q.ValueData == "" && q.ValueSlack == "" &&
		q.MinSize <= 0 && q.Base64 <= 0
}

// Search runs q against every hive, printing hits with the search terms
// highlighted. Deleted hits are marked.
func (r *Run) Search(q Query, hives []string) Summary {
	var hits, withHits int
	sum := r.Each(hives, func(h *hive.Hive) error {
		found, terms, err := r.searchHive(q, h)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			r.log.Info("nothing found", "hive", h.Path())
			return nil
		}
		r.log.Warn(fmt.Sprintf("Found %s in '%s'", plural(len(found), "search hit"), h.Path()))
		hits += len(found)
		withHits++
		for _, hit := range found {
			r.Metrics.AddHits(string(hit.Region), 1)
		}

		if err := r.Highlight.Set(terms, q.Mode.Regex); err != nil {
			r.log.Warn("highlighting disabled", "err", err)
		}
		for _, hit := range found {
			printHit(r.out, r.Highlight, hit, q.SuppressData)
		}
		r.Highlight.Clear()
		return nil
	})
	sum.Hits = hits
	sum.HivesWithHits = withHits

	if r.cfg.Directory != "" {
		r.log.Info(fmt.Sprintf("Directory: %s", r.cfg.Directory))
		r.log.Info(fmt.Sprintf("Found %s in %s out of %s",
			plural(sum.Hits, "hit"), plural(sum.HivesWithHits, "hive"), plural(sum.Files, "file")))
		r.log.Info(fmt.Sprintf("Total search time: %.3f seconds", sum.Elapsed.Seconds()))
	}
	return sum
}

func (r *Run) searchHive(q Query, h *hive.Hive) ([]search.Hit, []string, error) {
	e := search.New(h)
	switch {
	case q.MinSize > 0:
		hits, err := e.ValueSize(q.MinSize)
		return hits, nil, err
	case q.Base64 > 0:
		hits, err := e.Base64(q.Base64)
		return hits, nil, err
	}

	type termSearch struct {
		term string
		fn   func(string, search.Mode) ([]search.Hit, error)
	}
	var all []search.Hit
	var terms []string
	for _, s := range []termSearch{
		{q.KeyName, e.KeyName},
		{q.ValueName, e.ValueName},
		{q.ValueData, e.ValueData},
		{q.ValueSlack, e.ValueSlack},
	} {
		if s.term == "" {
			continue
		}
		hits, err := s.fn(s.term, q.Mode)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, hits...)
		terms = append(terms, search.HighlightTerms(hits, s.term, q.Mode.Regex)...)
	}
	return all, terms, nil
}

// printHit writes one hit line. Deleted hits are prefixed with a styled
// marker instead of being logged at a higher level.
func printHit(w io.Writer, hl *highlight.Highlighter, hit search.Hit, suppress bool) {
	line := hitLine(hit, suppress)
	if hit.Region != search.RegionSize && hit.Region != search.RegionBase64 {
		line = hl.Apply(line)
	}
	if hit.Deleted {
		line = highlight.DeletedStyle.Render("(deleted)") + " " + line
	}
	fmt.Fprintln(w, line)
}

func hitLine(hit search.Hit, suppress bool) string {
	key := hit.Key.Path()
	switch hit.Region {
	case search.RegionKeyName:
		return fmt.Sprintf("Key: '%s'", key)
	case search.RegionValueName:
		return fmt.Sprintf("Key: '%s', Value: '%s'", key, hit.Value.DisplayName())
	case search.RegionSize, search.RegionBase64:
		return fmt.Sprintf("Key: %s, Value: %s, Size: %d", key, hit.Value.DisplayName(), len(hit.Value.Raw()))
	}
	if suppress {
		return fmt.Sprintf("Key: '%s', Value: '%s'", key, hit.Value.DisplayName())
	}
	if hit.Region == search.RegionSlack {
		return fmt.Sprintf("Key: '%s', Value: '%s', Slack: '%s'", key, hit.Value.DisplayName(), hive.HexString(hit.Value.Slack()))
	}
	return fmt.Sprintf("Key: '%s', Value: '%s', Data: '%s'", key, hit.Value.DisplayName(), hit.Value.Data())
}
