// Package catalog records download and run history in a small SQLite
// database beside the workspace. The catalog is an audit trail, not pipeline
// state; the CSV ledger and the artifact directories alone decide what work
// remains.
package catalog
