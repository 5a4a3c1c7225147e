// Exportable exports typed records to CSV, JSON and text files.
//
// Records are read from line-delimited JSON or from the record store and
// are decoded against the record types defined in YAML type files.
// Exports run on demand, on cron schedules, or when input files change.
//
// Usage:
//
//	# Export tanks from a JSONL file to CSV and JSON
//	exportable export tank -t types.yaml -i tanks.jsonl -o tanks.csv -o tanks.json
//
//	# Merge new records into a snapshot collection
//	exportable sync tank -t types.yaml -i updates.jsonl --snapshot tanks
//
//	# Run the jobs of a configuration file once
//	exportable run --config exportable.yaml
//
//	# Run scheduled jobs until interrupted
//	exportable schedule --config exportable.yaml --watch
//
//	# Print the CUE schema of a type
//	exportable schema tank -t types.yaml --format cue
package main

func main() {
	Execute()
}
