// Package streamable implements the client side of the MCP streamable HTTP transport.
//
// Every JSON-RPC message is POSTed to a single endpoint. The server replies either with a
// single application/json document or with a text/event-stream whose frames are reassembled
// here into one logical response before it is returned to the caller.
//
// A Factory opens a Client bound to the credential valid at that moment; callers reopen the
// transport after a credential refresh instead of mutating an existing one.
package streamable
