// Package state holds the migration state carried from analyze to the
// later phases, and the single-slot store that persists it between
// invocations.
//
// State is a plain value. Phases receive it as an argument and never reach
// for the store themselves; the command layer loads it before a phase and
// saves or clears it afterwards.
package state
