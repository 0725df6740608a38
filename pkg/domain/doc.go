/*
Package domain contains the core domain models of the cyrkana input engine.

It defines the entities the conversion state machine works on: input profiles,
schemas mapping Cyrillic key sequences to phonetic keys, the global phonetic
table, and the outcome of a single keystroke. The package is kept free of I/O
and persistence so every adapter can share it.

# Key Entities

  - Profile: A language/layout identity bound to a schema by id.
  - Schema: Key sequence to phonetic key ("kana key") mapping.
  - PhoneticTable: Phonetic key to rendered output (hiragana) mapping.
  - Outcome: What the host should do after a keystroke (commit, composing, clear).
*/
package domain
