// Package channel implements the websocket pub/sub client used to receive
// push events from the generation backend.
//
// One Client owns one logical connection. Subscribe returns a handle per
// consumer so independent views can share a channel without overwriting each
// other; the wire protocol sees a single subscribe per channel regardless of
// consumer count. Connection loss is recovered by a fixed-backoff reconnect
// loop that re-subscribes every held channel, and Close unsubscribes
// everything so no server-side subscription state leaks.
package channel
