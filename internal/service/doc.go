// Package service implements the four operations of the academic cycle
// engine over the store interfaces: tenant resolution, schedule
// generation, ranking recomputation and promotion decisions. Each
// operation is a single bounded computation; durable state lives in the
// store and is re-read per invocation.
package service
