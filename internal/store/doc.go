// Package store provides the SQLite back end for the expression dataset.
//
// Tables:
//   - datasets: name and fingerprint of the imported dataset
//   - samples: the sample sheet, one row per matrix column
//   - probes: the value matrix, one row per probe
//   - symbol_map: gene symbol -> probe identifier mapping
//
// The store is written only by ImportDataset, which replaces everything in
// one transaction. Lookups are read-only.
//
// # Deterministic Results
//
// Every multi-row query orders by ordinal, then id COLLATE BINARY, so a
// symbol that fans out to several probes always returns them in the same
// order regardless of insertion history.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
