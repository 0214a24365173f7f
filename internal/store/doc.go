// Package store defines the persistence interfaces consumed by the
// engine services, along with shared transaction plumbing and the
// sentinel errors every implementation maps its failures onto.
package store
