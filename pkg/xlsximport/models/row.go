package models

// CellRow represents a single row of cells.
type CellRow struct {
	// R is the row index (1-based).
	R int `json:"r"`
	// Sheet is the sheet index (0-based).
	Sheet int `json:"sheet"`
	// C maps column index (1-based, as string) to cell value.
	C map[string]interface{} `json:"c"`
}
