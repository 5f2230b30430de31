// Package main provides the CLI entry point for xlsximport-go.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/output"
	"github.com/xuri/excelize/v2"
)

type flags struct {
	sheet     int
	sheetName string
	headerRow int
	startRow  int
	columns   string
	format    string
	encoding  string
	output    string
	pretty    bool
	verbose   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := new(flags)
	rootCmd := &cobra.Command{
		Use:   "xlsximport",
		Short: "Stream header and data rows out of .xlsx files",
		Long: `xlsximport reads worksheets of .xlsx files row by row without loading
the workbook into memory, and writes the rows as JSON lines or CSV.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().IntVar(&f.sheet, "sheet", 1, "Worksheet number, starting at 1")
	rootCmd.PersistentFlags().StringVar(&f.sheetName, "sheet-name", "", "Worksheet name (overrides --sheet)")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Log every cell read to stderr")

	sheetsCmd := &cobra.Command{
		Use:   "sheets [input.xlsx]",
		Short: "List the worksheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSheets(cmd.OutOrStdout(), args[0], f)
		},
	}

	headerCmd := &cobra.Command{
		Use:   "header [input.xlsx]",
		Short: "Print the header columns of a worksheet as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeader(cmd.OutOrStdout(), args[0], f)
		},
	}
	headerCmd.Flags().IntVar(&f.headerRow, "header-row", 1, "Row holding the column names, starting at 1")
	headerCmd.Flags().BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON output")

	rowsCmd := &cobra.Command{
		Use:   "rows [input.xlsx]",
		Short: "Write the data rows of a worksheet as JSON lines or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRows(cmd.OutOrStdout(), args[0], f)
		},
	}
	rowsCmd.Flags().IntVar(&f.startRow, "start-row", 2, "First data row, starting at 1")
	rowsCmd.Flags().StringVar(&f.columns, "columns", "", "Comma-separated columns to import, as letters (A,C) or numbers starting at 1 (default: all)")
	rowsCmd.Flags().StringVar(&f.format, "format", "json", "Output format: json or csv")
	rowsCmd.Flags().StringVar(&f.encoding, "encoding", "", "CSV output encoding, e.g. windows-1252 (default: utf-8)")
	rowsCmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file path (default: stdout)")
	rowsCmd.Flags().BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(sheetsCmd, headerCmd, rowsCmd)
	return rootCmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openSheet opens the workbook and resolves the selected worksheet to its
// zero-based index.
func openSheet(path string, f *flags) (*xlsximport.Workbook, int, error) {
	wb, err := xlsximport.Open(path, xlsximport.Options{Logger: newLogger(f.verbose)})
	if err != nil {
		return nil, 0, err
	}
	if f.sheetName != "" {
		idx, err := wb.SheetIndex(f.sheetName)
		if err != nil {
			wb.Close()
			return nil, 0, err
		}
		return wb, idx, nil
	}
	if f.sheet < 1 {
		wb.Close()
		return nil, 0, fmt.Errorf("invalid sheet number: %d", f.sheet)
	}
	return wb, f.sheet - 1, nil
}

func runSheets(w io.Writer, path string, f *flags) error {
	wb, err := xlsximport.Open(path, xlsximport.Options{Logger: newLogger(f.verbose)})
	if err != nil {
		return err
	}
	defer wb.Close()

	info := wb.Info()
	for _, s := range info.Sheets {
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.Index+1, s.Name, s.Part)
	}
	return nil
}

type headerColumn struct {
	Column string `json:"column"`
	Index  int    `json:"index"`
	Name   string `json:"name"`
}

func runHeader(w io.Writer, path string, f *flags) error {
	if f.headerRow < 1 {
		return fmt.Errorf("invalid header row: %d", f.headerRow)
	}
	wb, sheet, err := openSheet(path, f)
	if err != nil {
		return err
	}
	defer wb.Close()

	columns, err := wb.ReadHeaderRow(sheet, f.headerRow-1)
	if err != nil {
		return err
	}
	out := make([]headerColumn, 0, len(columns))
	for _, c := range columns {
		if c == nil {
			continue
		}
		label, err := excelize.ColumnNumberToName(c.Index + 1)
		if err != nil {
			return err
		}
		out = append(out, headerColumn{Column: label, Index: c.Index + 1, Name: c.Name})
	}

	enc := json.NewEncoder(w)
	if f.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func runRows(w io.Writer, path string, f *flags) error {
	if f.startRow < 1 {
		return fmt.Errorf("invalid start row: %d", f.startRow)
	}
	filter, err := parseColumns(f.columns)
	if err != nil {
		return err
	}
	wb, sheet, err := openSheet(path, f)
	if err != nil {
		return err
	}
	defer wb.Close()

	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer file.Close()
		w = file
	}

	consumer, err := newConsumer(w, f)
	if err != nil {
		return err
	}
	if _, err := wb.ReadDataRows(sheet, f.startRow-1, consumer, filter); err != nil {
		return err
	}
	if f.output != "" {
		fmt.Fprintf(os.Stderr, "%d rows written to %s\n", consumer.RowCount(), f.output)
	}
	return nil
}

func newConsumer(w io.Writer, f *flags) (xlsximport.RowConsumer, error) {
	switch f.format {
	case "json":
		return output.NewJSONWriter(w, f.pretty), nil
	case "csv":
		return output.NewCSVWriter(w, f.encoding)
	default:
		return nil, fmt.Errorf("invalid format: %s (must be json or csv)", f.format)
	}
}

// parseColumns turns a --columns value into a column filter. Each entry
// is a column letter or a column number starting at 1.
func parseColumns(value string) (xlsximport.ColumnFilter, error) {
	if strings.TrimSpace(value) == "" {
		return xlsximport.AllColumns, nil
	}
	var cols []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			if n, err = excelize.ColumnNameToNumber(part); err != nil {
				return nil, fmt.Errorf("invalid column %q: %w", part, err)
			}
		}
		if n < 1 {
			return nil, fmt.Errorf("invalid column %q", part)
		}
		cols = append(cols, n-1)
	}
	return xlsximport.ColumnSet(cols...), nil
}
