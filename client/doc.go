// Package client implements an MCP session over the streamable HTTP transport.
//
// A Session owns the JSON-RPC exchange ids, the correlation identifier stamped on every
// request and the lifecycle of the underlying transport:
//   - Open performs the `initialize` handshake and sends `notifications/initialized`.
//   - ListTools discovers the remote catalog, following pagination cursors.
//   - CallTool invokes a tool; a tool-level failure is returned as *ToolError.
//   - Close terminates the server session. Closed is terminal.
//
// Credentials are read from a Credentials source on every exchange. When the source hands
// out a different token the transport is reopened through the TransportFactory, and a 401
// from the endpoint invalidates the rejected token.
//
// Example:
//
//	factory := streamable.NewFactory()
//	session, _ := client.New(endpointURL, factory, cache)
//	_, _ = session.Open(ctx)
//	tools, _ := session.ListTools(ctx)
//	result, err := session.CallTool(ctx, "add", map[string]interface{}{"a": 10, "b": 5})
package client
