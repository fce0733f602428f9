package catalog

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"toolcore/internal/core"
)

// AnthropicTools converts native definitions to messages API tool params.
func AnthropicTools(defs []core.FunctionDefinition) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		if err := checkObject(def); err != nil {
			return nil, err
		}
		schema := def.Function.Parameters
		result[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        def.Function.Name,
			Description: param.NewOpt(def.Function.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   requiredOf(def),
			},
		}}
	}
	return result, nil
}
