// Package webhooks reconciles provider delivery-status callbacks into
// persisted delivery records and notification side effects.
//
// Processor is the inbound boundary: it decodes the provider envelope, dedupes
// redelivered events through the ledger and hands each event to a dispatcher.
// It acknowledges every request, whatever happens downstream.
package webhooks
