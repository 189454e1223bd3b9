// Package exporter writes a filtered dataset for download.
//
// CSVWriter produces UTF-8 CSV with a byte order mark so Excel opens it
// with the right encoding. XLSXWriter streams the same rows into a
// one-sheet workbook through excelize, keeping numeric columns numeric.
//
// Both append the derived columns after the source columns:
//
//	table := renderer.Table().Filter(provider)
//	err := exporter.NewCSVWriter(logger).WriteTable(w, table)
package exporter
