// Package protolog provides structured diagnostic logging for the bridge core.
//
// This is separate from operational logging (slog): protolog captures a
// machine-readable trace of health transitions, fieldbus completions, and
// bus command/ack pairs, independent of the JSON payloads the bus gateway
// publishes. It exists so a field technician can replay "what did the
// supervisor see and do" without needing a broker capture.
//
// Applications configure diagnostic logging by providing a Logger:
//
//	// Console, for development:
//	logger := protolog.NewSlogAdapter(slog.Default())
//
//	// File, for field diagnostics:
//	logger, _ := protolog.NewFileLogger("/var/log/cryobridge/trace.plog")
//
//	// Both:
//	logger := protolog.NewMultiLogger(
//	    protolog.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Log files use CBOR encoding with a .plog extension.
package protolog
