package pipeline

import "github.com/ironfeed-hq/ironfeed/internal/domain"

// Dedupe collapses records sharing an identity key, keeping the first
// occurrence in input order. Input order is source-list order then document
// order, so "first wins" is a documented contract, not an accident. Returns
// the surviving records and the number of duplicates dropped.
func Dedupe(records []domain.Record) ([]domain.Record, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.Record, 0, len(records))

	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}
