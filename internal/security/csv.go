package security

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"CineVault/internal/apperr"
)

var csvHeader = []string{"Time", "Event Type", "User", "IP Address", "User Agent", "Severity", "Details"}

// ExportCSV streams all audit records matching the filter as CSV,
// newest first. An empty result still writes the header row.
func (a *Aggregator) ExportCSV(ctx context.Context, filter Filter, w io.Writer) error {
	records, err := a.store.ListFiltered(ctx, filter)
	if err != nil {
		return apperr.Storage(err)
	}
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		user := "System"
		if rec.UserID != nil {
			user = fmt.Sprintf("user:%d", *rec.UserID)
			if a.userName != nil {
				if name := a.userName(ctx, *rec.UserID); name != "" {
					user = name
				}
			}
		}
		row := []string{
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.EventType,
			user,
			rec.IPAddress,
			rec.UserAgent,
			rec.Severity,
			rec.Details,
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
