// Package qsd provides quasi-static data: admin-editable pages and inline
// content fragments with cached rendering.
//
// A Service resolves records by URL into rendered pages, renders records
// inline inside other templates, and persists edits through a pluggable
// Repository. Every write invalidates the cached renderings that depend on
// the record before returning, so a read that follows a write always sees
// the new content.
//
// Repository implementations (memory, Postgres, SQLite) live under repo/,
// the generation-guarded cache and its providers under cache/. The admin
// save pipeline, which reassigns authorship to the editing user, lives in
// admin/.
package qsd
