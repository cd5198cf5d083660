// Package logger builds *slog.Logger values for the authkit components.
//
// New takes functional options that select the output format and level, add
// static attributes and register ContextExtractor callbacks. Extractors run
// on every record, so a trace identifier stored in the call context ends up
// in each log line without passing it around explicitly:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "authkit"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "request retried",
//	    logger.Component("httpclient"),
//	    logger.Attempt(2),
//	    logger.StatusCode(503),
//	)
//
// The attribute helpers in attr.go keep key names consistent across
// packages. Helpers that receive an empty value return an empty slog.Attr,
// which handlers drop, so callers need no nil checks:
//
//	log.Warn("refresh failed", logger.Error(err))
//
// Discard returns a logger for components constructed without one.
package logger
