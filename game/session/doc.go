// Package session keeps the live games of the server.
//
// Manager stores service.Session values keyed by a case-insensitive id.
// Generated ids are four hex characters, easy to type into a console or an
// MCP prompt. Each session owns its own engine, so games never share state;
// the per-session lock in service.Session serializes commands within a game.
//
// With a SessionPersistence attached, sessions are written on creation and
// after every turn, and a Get for an id that is not in memory falls back to
// disk. FilePersistence stores one JSON document per session (state plus
// event history) and replaces files atomically.
//
//	manager := session.NewManagerWithPersistence(persistence, logger)
//	sess, err := manager.Create("", "classic", preset)
//
// CleanupExpiredSessions removes idle sessions; a session whose lock is held
// by a running command is never considered idle.
package session
