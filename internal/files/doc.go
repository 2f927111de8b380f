// Package files finds the downloaded source spreadsheets and performs the
// pipeline's file writes.
//
// Discovery lists {year}.xls and {year}.xlsx files in the downloads directory
// and turns them into domain.SourceFile values. Manager writes files
// atomically through a temporary file and a rename, so a crashed run never
// leaves a half-written table or spreadsheet behind.
//
// Example usage:
//
//	discovery := files.NewDiscovery("scratch", logger)
//	sources, err := discovery.FindSourceFiles(2010)
//
//	manager := files.NewManager(logger)
//	err = manager.WriteAtomic("scratch/2020.xlsx", func(w io.Writer) error {
//	    _, err := io.Copy(w, body)
//	    return err
//	})
package files
