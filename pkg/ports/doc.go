// Package ports defines the driven-port interfaces the flow engine consumes:
// flow and context persistence, outbound channel delivery, operator
// assignment, and distributed locking. Adapters live in pkg/adapters.
//
// The package also ships reusable contract test suites so every store adapter
// is verified against the same expectations.
package ports
