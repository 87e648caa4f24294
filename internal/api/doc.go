// Package api provides HTTP clients for the upstream data providers.
//
// Governance hub (GraphQL, Snapshot-compatible):
//   - Production: https://hub.snapshot.org/graphql
//   - Testnet: https://testnet.hub.snapshot.org/graphql
//
// Treasury valuations (REST, DefiLlama-compatible):
//   - GET /treasury/{dao}
//
// HubSource adapts the hub to the syncer's paginated, cursor-driven feeds.
package api
