// Package ranking implements the pure computational core of the
// academic cycle engine: standard competition ranking over averages and
// the three-zone promotion classification. The package has no storage
// or I/O dependencies; the service layer feeds it rows loaded from the
// store and persists what it returns.
package ranking
