// Package exporter turns formatted report tables into files.
//
// WorkbookWriter renders a NamedTableSet as an xlsx workbook with one sheet
// per table: a merged title row, a styled header row and typed data cells
// (dates, integers, percent fractions, #,##0.00 amounts, [h]:mm:ss durations).
//
// FileWriter places exported bytes and CSV renditions in the configured
// output directory, and RenderText prints a table for terminal output.
//
// Example usage:
//
//	writer := exporter.NewWorkbookWriter(logger)
//	data, err := writer.Write(report.Tables)
//	if err != nil {
//		return err
//	}
//	name := exporter.FileName(kind.FileLabel, report.Scope, report.GeneratedAt)
//	path, err := exporter.NewFileWriter(cfg.Report.OutputDir, logger).Save(name, data)
package exporter
