// Package domain contains the core business entities and rules for the
// regulatory readiness engine: documents and chunks on the startup side,
// articles and revisions on the corpus side, and the mapping, gap,
// scorecard, recommendation and review types derived from evaluating one
// against the other.
//
// The domain layer has no dependencies on other internal packages.
package domain
