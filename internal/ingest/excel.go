// Package ingest turns operator-supplied spreadsheets (HR exports, badge
// rosters) into canonical entity updates: header discovery, synonym-based
// column resolution, row validation, and the active/inactive merge.
package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook extracts the first sheet of an xlsx workbook as rows of
// cells. The result feeds ParseSheet; nothing is written anywhere at this
// stage.
func ReadWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
