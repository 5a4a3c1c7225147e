// Package logging provides structured logging for exportable.
//
// The logger wraps log/slog with JSON, text and console formats, a level
// that can be raised at runtime and optional rotating file output through
// lumberjack.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	logger.SetDefault()
//
// Context fields (session, job, type, destination) are added to every
// record logged with a context:
//
//	ctx, _ = logging.NewSession(ctx)
//	ctx = logging.WithJob(ctx, "nightly")
//	slog.InfoContext(ctx, "export started") // session=... job=nightly
package logging
