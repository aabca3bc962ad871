// Package domain defines the core business entities and errors for the
// processing-task ledger: tasks, tags, engine phases, and result payloads.
package domain
