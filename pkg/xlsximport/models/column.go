package models

// Column describes one populated header cell.
type Column struct {
	// Index is the zero-based column index.
	Index int `json:"index"`
	// Name is the header text.
	Name string `json:"name"`
}
