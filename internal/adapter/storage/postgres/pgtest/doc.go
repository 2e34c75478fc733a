// Package pgtest starts a throwaway PostgreSQL for tests built with the
// integration tag.
package pgtest
