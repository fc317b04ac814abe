// Package storage defines persistence contracts for the CRM schema the
// operational tools consume.
//
// Tools depend on these interfaces so their query and mutation logic stays
// testable against fakes, independent of the concrete SQLite schema.
package storage
