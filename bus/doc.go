// Package bus implements the central message router. It owns the subscriber
// registry, a bounded message history and the pending-request table backing
// the blocking request/response primitive.
//
// The bus has no knowledge of workflow semantics: it only routes a message to
// the handlers registered for its receiver and kind, and matches correlated
// replies to waiting callers. A handler may reply synchronously (return a
// non-nil message from the handler) or asynchronously (return nil and later
// publish a reply correlated to the request id); callers of RequestResponse
// cannot tell the two apart.
package bus
