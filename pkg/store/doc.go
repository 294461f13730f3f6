// Package store provides in-memory implementations of the component,
// promotion, page, template and revision stores. They are safe for
// concurrent use and intended for tests, examples and the CLI. The postgres
// subpackage carries a SQL-backed revision store.
package store
