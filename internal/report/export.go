package report

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
)

// Filename is the CSV file name of a table
func Filename(kind Kind) string {
	if kind == KindGaps {
		return "data_gaps.csv"
	}
	return string(kind) + ".csv"
}

// WriteCSV writes every row of the filtered, sorted view of one table. Paging
// is ignored.
func WriteCSV(w io.Writer, kind Kind, segs []models.Segment, q Query, loc *time.Location) error {
	switch kind {
	case KindStays:
		return writeTable(w, stayTable, StayRows(segs), q, loc)
	case KindTrips:
		return writeTable(w, tripTable, TripRows(segs), q, loc)
	case KindGaps:
		return writeTable(w, gapTable, GapRows(segs), q, loc)
	}
	return fmt.Errorf("%w: unknown report %q", models.ErrValidation, kind)
}

// ExportAll writes a ZIP archive holding all three tables, unfiltered and in
// chronological order.
func ExportAll(w io.Writer, segs []models.Segment, loc *time.Location) error {
	zw := zip.NewWriter(w)
	for _, kind := range []Kind{KindStays, KindTrips, KindGaps} {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     Filename(kind),
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", Filename(kind), err)
		}
		if err := WriteCSV(f, kind, segs, Query{}, loc); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func writeTable[R any](w io.Writer, t table[R], rows []R, q Query, loc *time.Location) error {
	view, err := t.view(rows, q)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.header()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range view {
		if err := cw.Write(t.record(r, loc)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
