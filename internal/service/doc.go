// Package service implements the processing-task orchestration layer: the
// submission gateway that durably records work before forwarding it to the
// external engine, the status reconciler that advances the ledger state
// machine on behalf of polling clients, and the tag indexer.
package service
