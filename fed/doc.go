// Package fed implements the federated composite engine: several backends
// presented as one, with each table owned by exactly one constituent.
//
//	federated, err := fed.New(memBackend, duckBackend)
//
// Ownership is discovered at construction from each constituent's existing
// tables; overlapping claims fail with a ConfigurationError. Tables created
// later through the federation go to the first constituent.
//
// The federation offers no cross-backend atomicity: writes that span tables
// owned by different constituents commit or fail independently.
package fed
