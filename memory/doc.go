// Package memory persists conversation turns across queries so the swarm can
// ground follow-up questions in prior exchanges. The Store interface hides
// the backend; InMemoryStore is the process-local implementation used in
// tests and demos, and remote stores (managed memory services, DynamoDB,
// Redis) can be plugged in without touching the orchestration code.
//
// Memory is strictly best-effort: the Adapter degrades a failed load to an
// empty history and reports a failed append as a warning, so a memory outage
// never fails a query.
package memory
