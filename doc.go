// Package agentcore composes the authenticated tool bridge.
//
// A Service loads its parameters from a key-value store, exchanges the OAuth2 client
// credentials for a bearer token, opens an MCP session against the remote runtime and
// discovers its tools. Prompts are answered by an agent that alternates between a
// reasoning process and calls to the discovered tools.
//
// Example:
//
//	srv, err := agentcore.New(ctx, &agentcore.Options{Region: "ap-southeast-2"})
//	if err != nil {
//		return err
//	}
//	defer srv.Shutdown(ctx)
//	answer, err := srv.Respond(ctx, "What is 3 + 4?")
package agentcore
