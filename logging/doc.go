// Package logging delivers statement log entries to sinks.
//
// Every statement a session runs becomes an Entry. Sinks are available for
// log/slog, zap and a msgpack stream:
//
//	l := logging.Multi(logging.Slog(nil), logging.Msgpack(f))
package logging
