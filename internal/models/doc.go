// Package models defines domain entities for the Resona track enrichment core.
//
// The package contains three categories of types:
//
// 1. Catalog entities persisted in SQLite:
//   - [Track] : Catalog track with seed platform identity, optional embedding vector, genres, and platform links
//   - [PlatformLink] : A track's identifier on a single streaming platform
//
// 2. Enumerations with strict parsing:
//   - [Platform] : The fixed set of tracked streaming platforms; unknown keys are rejected, never silently ignored
//   - [TaskStatus] : Resolution task lifecycle states with legal-transition checking
//
// 3. Transient job records:
//   - [ResolutionTask] : Progress snapshot of a batch resolution job, held in a process-local registry
//
// Catalog entities carry soft-delete timestamps and are mutated only through
// the repositories package; ResolutionTask records are mutated only through
// the tasks package's manager.
package models
