package catalog

import (
	"github.com/openai/openai-go"

	"toolcore/internal/core"
)

// OpenAITools converts native definitions to chat-completion tool params.
func OpenAITools(defs []core.FunctionDefinition) ([]openai.ChatCompletionToolParam, error) {
	result := make([]openai.ChatCompletionToolParam, len(defs))
	for i, def := range defs {
		if err := checkObject(def); err != nil {
			return nil, err
		}
		schema := def.Function.Parameters
		result[i] = openai.ChatCompletionToolParam{Function: openai.FunctionDefinitionParam{
			Name:        def.Function.Name,
			Description: openai.String(def.Function.Description),
			Parameters: openai.FunctionParameters{
				"type":                 "object",
				"properties":           schema.Properties,
				"required":             requiredOf(def),
				"additionalProperties": false,
			},
		}}
	}
	return result, nil
}
