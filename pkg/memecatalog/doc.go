// Package memecatalog keeps a catalog of named media assets whose metadata
// lives in a relational repository and whose payload lives in a blob store.
//
// The two stores share no transaction. The Service coordinates them as a
// short saga per operation with a fixed ordering:
//
//   - create writes the blob first and inserts the row second; if the insert
//     fails the blob is removed on a best-effort basis
//   - delete removes the blob first and the row second; if the blob delete
//     fails the row stays and still points at a readable blob
//
// The only failure left without compensation is therefore an orphan blob
// (a payload with no row), never a row that references a missing payload.
//
// Repository implementations live under repo/ (memory, postgres) and blob
// store implementations under storage/ (memory, fs, s3).
package memecatalog
