// Package domain defines the core business entities of the academic
// cycle engine: tenant accounts, academic years with their terms and
// exams, and the derived result records (subject results, term results,
// promotion records). Entities validate themselves; persistence and
// orchestration live in the store and service packages.
package domain
