// Package driving provides interfaces for inbound use cases
// (primary ports): the request/response boundary the UI and other
// collaborators call the engine through.
package driving
