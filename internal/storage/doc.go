// Package storage persists experiment artifacts.
//
// SaveDict and LoadDict round-trip an opaque key/value record through a
// single gob file. Store lays out one directory per run holding
// metadata.json, the labeled grid as points.csv and the artifact record
// as roa.gob.
package storage
