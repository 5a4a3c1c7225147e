// Package export streams records to text, JSON or CSV destinations.
//
// # Renderer Contracts
//
// Rows are rendered through one of three interfaces, chosen by format:
//
//   - TextExportable: one line per row, "rich" variant on stdout
//   - JSONExportable: one compact JSON document per line
//   - CSVExportable: header from the first row, empty cells for missing values
//
// *record.Record implements all three.
//
// # Exporting
//
//	counter, err := export.Export(ctx, records, export.Options{
//	    Format: export.FormatCSV,
//	    Path:   "tanks",
//	})
//
// A recognized extension on the path overrides Format, and a path without
// one gets the format's extension appended, so the example writes
// "tanks.csv". Stdout ("-") is never rewritten.
//
// # Destinations
//
// An existing destination fails the call with ErrDestinationExists unless
// Force or Append is set. The check runs before the first row is read.
// Append only applies to an existing file and does not repeat the CSV
// header. Empty input creates no file.
//
// # Error Handling
//
// A row that cannot be rendered or written is logged and counted under
// "errors"; the export goes on with the next row. Call-level failures are
// returned as *ConfigError (bad options) or *ExportError (destination).
// Cancelling the context stops the export cleanly and keeps what was
// written.
package export
