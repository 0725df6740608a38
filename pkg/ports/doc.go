/*
Package ports defines the driven ports (interfaces) of the cyrkana engine.

These interfaces decouple the engine from where language packs live, so the
same profiles, phonetic table and schemas can be read from a directory, a
Redis instance, a SQLite file or a Loam repository.

# Key Interfaces

  - ProfileSource: Returns the raw profile list document.
  - PhoneticSource: Returns the raw phonetic table document.
  - SchemaSource: Returns raw schema documents by id.
  - PackSource: All of the above.
  - Watchable: Signals schema ids whose documents changed (hot reload).
  - PackPublisher: Writes a pack into a backend.
*/
package ports
