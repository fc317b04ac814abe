// Package sqlite provides the SQLite-backed CRM store the operational tools
// run against.
//
// The schema belongs to the main application; this package bundles a baseline
// DDL snapshot only so one-off tools and their tests can open a working
// database file without coordinating with application migrations.
package sqlite
