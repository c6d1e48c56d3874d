// Command agentcore-bridge serves prompts answered with tools of a remote MCP runtime.
package main

import (
	"log"
	"os"

	"github.com/viant/agentcore/bridge"
)

func main() {
	if err := bridge.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
