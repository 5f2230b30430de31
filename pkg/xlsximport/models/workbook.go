package models

// WorkbookInfo is the minimal workbook-level view exposed by the container.
type WorkbookInfo struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Date1904 reports whether serial dates use the 1904 date system.
	Date1904 bool `json:"date1904,omitempty"`
	// Sheets lists the worksheets in selection order.
	Sheets []SheetInfo `json:"sheets"`
}
