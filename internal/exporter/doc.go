// Package exporter persists the tidy deaths table.
//
// ParquetStore is the canonical store: WriteDataset replaces the Parquet file
// atomically and Load reads it back for the query API. The file has the
// columns geo_code, place_name, month, deaths, year and datetime, with missing
// death counts stored as nulls.
//
// CSVWriter produces an optional CSV copy of the same table for spreadsheet
// users, with a UTF-8 BOM so Excel picks the right encoding.
//
// Example usage:
//
//	store := exporter.NewParquetStore("scratch/deaths_data.parquet", logger)
//	if err := store.WriteDataset(ctx, dataset); err != nil {
//	    return err
//	}
//
//	csvWriter := exporter.NewCSVWriter(logger)
//	err := csvWriter.WriteObservations(ctx, "scratch/deaths_data.csv", dataset)
package exporter
