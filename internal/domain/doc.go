// Package domain defines the core domain types and contracts.
//
// Concept-oriented files (domain.go, tts.go, plugin.go, errors.go) hold the
// shared event model, settings value types and sentinel errors. No
// implementation code - just contracts shared by every component.
package domain
