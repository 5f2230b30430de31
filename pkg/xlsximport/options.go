// Package xlsximport streams header and data rows out of xlsx workbooks
// without loading the workbook into memory.
package xlsximport

import "log/slog"

const defaultMaxSharedStrings = 1 << 24

// Options configures extraction behavior.
type Options struct {
	// Logger receives progress and diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
	// MaxSharedStrings caps the shared string table size.
	// Zero means the default; a negative value disables the limit.
	MaxSharedStrings int
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		Logger:           slog.Default(),
		MaxSharedStrings: defaultMaxSharedStrings,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) sharedStringsLimit() int {
	switch {
	case o.MaxSharedStrings == 0:
		return defaultMaxSharedStrings
	case o.MaxSharedStrings < 0:
		return 0
	}
	return o.MaxSharedStrings
}
