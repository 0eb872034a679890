package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects T into a JSON schema accepted by strict
// structured outputs: every object closed and every property required.
func GenerateSchema[T any]() map[string]any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := r.Reflect(v).MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	closeObjects(m)
	return m
}

func closeObjects(s map[string]any) {
	props, _ := s["properties"].(map[string]any)
	if t, _ := s["type"].(string); t == "object" {
		s["additionalProperties"] = false
		if len(props) > 0 {
			req := make([]string, 0, len(props))
			for name := range props {
				req = append(req, name)
			}
			s["required"] = req
		}
	}
	for _, p := range props {
		if pm, ok := p.(map[string]any); ok {
			closeObjects(pm)
		}
	}
	if items, ok := s["items"].(map[string]any); ok {
		closeObjects(items)
	}
}
