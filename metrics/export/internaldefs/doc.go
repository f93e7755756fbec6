// Package internaldefs holds the metric names, help strings and bucket helpers used by
// exporters, so that every exporter publishes identical series.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
