package models

// SheetInfo describes one worksheet part of a workbook.
type SheetInfo struct {
	// Index is the zero-based sheet index used to select the sheet.
	Index int `json:"index"`
	// Name is the sheet name from workbook.xml (empty if unknown).
	Name string `json:"name,omitempty"`
	// Part is the worksheet part name inside the archive.
	Part string `json:"part"`
}
