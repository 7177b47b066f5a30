package fetch

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook is a decoded spreadsheet. Sheets are read on demand as raw text
// grids; the file handle is released with Close.
type Workbook struct {
	path string
	f    *excelize.File
}

// OpenWorkbook decodes a workbook from disk. The legacy BIFF (.xls) container
// is not supported by the decoder; its failure surfaces here and is reported
// as a retrieval error rather than a crash.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, f: f}, nil
}

// SheetNames lists the workbook's sheets in file order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Rows returns the full text grid of one sheet, header banners included.
func (w *Workbook) Rows(name string) ([][]string, error) {
	rows, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	return rows, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}
