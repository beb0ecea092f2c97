// Package core contains the relay's canonical domain records, collaborator
// contracts, configuration, and error envelope. Adapters (stores, transport,
// provider clients, HTTP surface) depend on this package; core must not depend
// on any of them.
package core
