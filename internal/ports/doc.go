// Package ports defines the interfaces between the engine and its external
// collaborators: the transport to the collector, the clock, and the
// diagnostic logger. Implementations live in internal/adapters.
package ports
