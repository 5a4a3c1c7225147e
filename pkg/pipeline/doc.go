// Package pipeline wires sources, exports and snapshots into runnable jobs.
//
// A Job reads one Source (line-delimited JSON files, a store, or a fixed
// record list) and exports every record to each of its targets
// concurrently. Targets receive the records in source order and share the
// job counter:
//
//	job := &pipeline.Job{
//	    Name:   "tanks",
//	    Source: &pipeline.FileSource{Path: "tanks.jsonl", Type: tankType},
//	    Targets: []export.Options{
//	        {Format: export.FormatCSV, Path: "out/tanks.csv", Force: true},
//	        {Format: export.FormatJSON, Path: "out/tanks.jsonl", Force: true},
//	    },
//	}
//	counter, err := job.Run(ctx)
//
// Sync keeps a keyed collection snapshot on disk up to date with incoming
// records and optionally mirrors the changes into a store.Store.
//
// Scheduler runs jobs on cron expressions (github.com/robfig/cron/v3) and
// Watcher reruns work when input files change (github.com/fsnotify/fsnotify).
package pipeline
