package interceptors

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/xeipuuv/gojsonschema"
)

// Schema validates every successful response body against a JSON Schema.
// A mismatch rejects with a *client.Error of code ERR_SCHEMA that carries the
// response.
func Schema(schemaJSON []byte) (client.Fulfilled[*client.Response], error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}

	return func(_ context.Context, resp *client.Response) (*client.Response, error) {
		if resp == nil {
			return resp, nil
		}

		var document gojsonschema.JSONLoader
		if len(resp.Body) > 0 {
			document = gojsonschema.NewBytesLoader(resp.Body)
		} else {
			document = gojsonschema.NewGoLoader(resp.Data)
		}

		result, err := schema.Validate(document)
		if err != nil {
			return nil, client.NewError("schema validation error", client.CodeSchema, resp.Config, resp, err)
		}
		if result.Valid() {
			return resp, nil
		}

		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, client.NewError(
			fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; ")),
			client.CodeSchema, resp.Config, resp, nil,
		)
	}, nil
}

// SchemaFile is Schema with the schema read from path.
func SchemaFile(path string) (client.Fulfilled[*client.Response], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Schema(data)
}
