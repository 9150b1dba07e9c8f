// Package repositories implements persistence for card state and card configuration.
//
// Key Implementations:
//   - [KVRepository] : SQLite key-value store backing the card's connection map
//   - [MemoryStore] : in-process store for one-shot commands and tests
//   - [CardConfigFile] : YAML card configuration on disk, written wholesale on every edit
//
// Both stores satisfy card.Store: a single string value per key, replaced in full on every write.
package repositories
