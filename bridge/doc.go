// Package bridge exposes an agentcore.Service over HTTP.
//
// The runtime contract is:
//
//	POST /invocations {"prompt": "..."}  ->  {"result": "..."}
//	GET  /ping                           ->  {"status": "Healthy"}
//	GET  /metrics                        ->  Prometheus exposition
//
// A missing prompt defaults to "Hello".
package bridge
