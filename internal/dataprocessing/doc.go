// Package dataprocessing turns call-center remark exports into summary tables.
//
// # Architecture
//
// A report run is a pure function of its input rows and ReportOptions:
//
//	ReadTable → LoadRecords → ExclusionRules.Apply → Aggregator.Aggregate → Formatter.Table
//
//  1. Reader: reads .xlsx (excelize) or .csv uploads into a RawTable
//  2. Loader: normalizes headers and types every cell; bad cells become null
//     and produce parse warnings
//  3. Filter: drops system and placeholder rows per the exclusion rules
//  4. Aggregator: groups rows by date, collector, client, cycle or balance
//     bucket and computes the metric vector of each group
//  5. Formatter: renders percentages, amounts and HH:MM:SS durations
//
// Pipeline wires the stages together. ReportKind values registered in this
// package configure the engine for each report variant.
//
// # Usage
//
//	raw, err := dataprocessing.ReadTable(file, "remarks.xlsx")
//	if err != nil {
//	    return err
//	}
//	opts := dataprocessing.DefaultReportOptions(cfg.Report, "cycle")
//	report, err := dataprocessing.NewPipeline(logger).Run(ctx, raw, opts)
//
// # Null Handling
//
// Ratios whose denominator is zero are nil and render as null cells, never
// as 0% and never as a division fault.
package dataprocessing
