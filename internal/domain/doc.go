// Package domain contains the core entities of the log shipping engine:
// records, wire payload shapes, the retry queue entry, and domain errors.
// It has no dependencies on other internal packages.
package domain
