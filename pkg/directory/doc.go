// Package directory defines the typed records exchanged between the source
// directory, the target directory service, and the sync engine. Records are
// read-only snapshots: each sync pass fetches them once and never mutates
// them. Join keys that travel as strings on the wire (the sync tag, mail
// addresses) are parsed into typed values on ingestion so the engine never
// compares raw strings ad hoc.
package directory
