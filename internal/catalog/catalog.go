// Package catalog converts the native tool catalog into the request shapes of
// hosted LLM APIs.
package catalog

import (
	"fmt"

	"toolcore/internal/core"
)

// Format names a catalog encoding.
type Format string

const (
	FormatNative    Format = "native"
	FormatOpenAI    Format = "openai"
	FormatAnthropic Format = "anthropic"
)

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatNative, FormatOpenAI, FormatAnthropic}
}

// Export renders defs in the requested format. The result is ready for
// json.Marshal.
func Export(format Format, defs []core.FunctionDefinition) (any, error) {
	switch format {
	case "", FormatNative:
		return defs, nil
	case FormatOpenAI:
		return OpenAITools(defs)
	case FormatAnthropic:
		return AnthropicTools(defs)
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
}

func checkObject(def core.FunctionDefinition) error {
	if def.Function.Parameters == nil || def.Function.Parameters.Type != "object" {
		return fmt.Errorf("tool %q parameters must be an object schema", def.Function.Name)
	}
	return nil
}

func requiredOf(def core.FunctionDefinition) []string {
	if def.Function.Parameters.Required == nil {
		return []string{}
	}
	return def.Function.Parameters.Required
}
