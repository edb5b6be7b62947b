package strategy

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of a strategy document.
func Schema() (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.HasPrefix(t.String(), "optional.Option[") {
				return &jsonschema.Schema{Type: "string"}
			}

			if t == reflect.TypeOf(Operator("")) {
				enum := make([]any, 0, len(AllOperators)+len(operatorAliases))
				for _, op := range AllOperators {
					enum = append(enum, string(op))
				}

				for alias := range operatorAliases {
					enum = append(enum, string(alias))
				}

				return &jsonschema.Schema{Type: "string", Enum: enum}
			}

			return nil
		},
	}

	schema := reflector.Reflect(&Document{})
	schema.Title = "strategy-document"
	schema.Description = "Rendered strategy description consumed by the backtester"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
