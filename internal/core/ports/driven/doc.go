// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): storage, embedding, vector search,
// entailment scoring and the remediation catalog.
package driven
