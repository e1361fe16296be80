// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Relations are validated and enriched here: the Resolver batches document
// lookups per pass, the Enricher fills role slots and derives status, and
// the Registry holds every entity schema.
package services
