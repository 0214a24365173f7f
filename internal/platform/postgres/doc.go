// Package postgres implements the store interfaces on PostgreSQL,
// accessed through database/sql with the pgx stdlib driver.
package postgres
