package mcptest

import (
	"errors"
	"fmt"

	"github.com/viant/mcp-protocol/schema"
)

type unknownToolError string

func (e unknownToolError) Error() string {
	return "Unknown tool: " + string(e)
}

var errDivideByZero = errors.New("Cannot divide by zero")

func calculatorTools() []schema.Tool {
	describe := func(s string) *string { return &s }
	binary := func() schema.ToolInputSchema {
		return schema.ToolInputSchema{
			Type: "object",
			Properties: map[string]map[string]interface{}{
				"a": {"type": "number", "description": "first operand"},
				"b": {"type": "number", "description": "second operand"},
			},
			Required: []string{"a", "b"},
		}
	}
	return []schema.Tool{
		{Name: "add", Description: describe("Add two numbers together"), InputSchema: binary()},
		{Name: "subtract", Description: describe("Subtract b from a"), InputSchema: binary()},
		{Name: "multiply", Description: describe("Multiply two numbers together"), InputSchema: binary()},
		{Name: "divide", Description: describe("Divide a by b"), InputSchema: binary()},
	}
}

func calculate(name string, arguments map[string]interface{}) (float64, error) {
	switch name {
	case "add", "subtract", "multiply", "divide":
	default:
		return 0, unknownToolError(name)
	}
	a, err := operand(arguments, "a")
	if err != nil {
		return 0, err
	}
	b, err := operand(arguments, "b")
	if err != nil {
		return 0, err
	}
	switch name {
	case "add":
		return a + b, nil
	case "subtract":
		return a - b, nil
	case "multiply":
		return a * b, nil
	case "divide":
		if b == 0 {
			return 0, errDivideByZero
		}
		return a / b, nil
	}
	return 0, unknownToolError(name)
}

func operand(arguments map[string]interface{}, name string) (float64, error) {
	value, ok := arguments[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	number, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q must be a number", name)
	}
	return number, nil
}
