// Package core provides the foundational domain types shared across RagMesh:
//
//   - Message (immutable correlation-aware envelope routed by the bus)
//   - Kind (closed enumeration of message kinds)
//   - Typed payloads for every kind (ingestion, retrieval, generation,
//     status and error)
//   - Document / Chunk / Turn value types flowing between pipeline stages
//
// The package intentionally keeps implementation concerns (routing, agents,
// stores) out of scope so that every other package can depend on it without
// cycles. Payloads are plain structs asserted by kind at the receiving
// handler; there is no runtime string matching on payload contents.
package core
