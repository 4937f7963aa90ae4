// Package migration drives a host through the merge:
//
//	initial --analyze--> analyzed --migrate--> migrated --rollback--> initial
//	                                                   \--finish----> finished
//
// Every phase re-verifies the topology of every prefix before it changes
// anything. The migration state is an argument of each phase; loading and
// saving it is the caller's job.
//
// A phase returns an error only for fatal failures. Failures of
// best-effort cleanup steps are collected on the Result as recoverable
// issues and the phase carries on.
package migration
