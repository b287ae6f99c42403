// Package models holds the GORM rows behind the payables, ledger and approval
// aggregates. Domain types never carry GORM tags; each model converts with
// ToDomain and FromDomain.
//
// Tables:
//   - payables.go: counterparties, documents, line items, network documents,
//     vendor payments, payment items, adjustments, batches and batch rows
//   - ledger.go: ledger entries
//   - approval.go: workflows, paths, rules, steps, tasks, role members
//   - audit.go: audit records and All, the schema list used by AutoMigrate
package models
