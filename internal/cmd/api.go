package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/extrata/extrata-cli/internal/validation"
	"github.com/spf13/cobra"
)

func newAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "api",
		Aliases: []string{"ap"},
		Short:   "Make raw requests to any Extrata endpoint",
		Long: `Make raw requests to any Extrata API endpoint.

This command gives scripts direct access to endpoints that have no dedicated
CLI command. The path is relative to the API base, so "/statement/parser/42"
calls https://api.extrata.com.br/api/v1/statement/parser/42.

Query parameters given with -p are sent in the order written; repeating a
name sends it twice. Headers given with -H are added to the standard set,
never replacing it.`,
	}

	cmd.AddCommand(newAPIMethodCmd(http.MethodGet, false))
	cmd.AddCommand(newAPIMethodCmd(http.MethodPost, true))
	cmd.AddCommand(newAPIMethodCmd(http.MethodPut, true))

	return cmd
}

func newAPIMethodCmd(method string, hasBody bool) *cobra.Command {
	var (
		headers        []string
		params         []string
		payer          string
		includeHeaders bool
		fields         []string
		rawFields      []string
		inputFile      string
		jsonBody       string
		upload         bool
	)

	use := strings.ToLower(method)
	cmd := &cobra.Command{
		Use:   use + " <path>",
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			req := api.Request{
				Method: method,
				Path:   args[0],
			}

			for _, raw := range params {
				param, err := parseParamFlag(raw)
				if err != nil {
					return err
				}
				req.Params = append(req.Params, param)
			}

			if payer != "" {
				if err := validation.ValidateTaxID(payer); err != nil {
					return fmt.Errorf("invalid --payer: %w", err)
				}
				req.Headers = append(req.Headers, api.Header{Name: "X-Payer-Id", Value: validation.TaxIDDigits(payer)})
			}
			for _, raw := range headers {
				header, err := parseHeaderFlag(raw)
				if err != nil {
					return err
				}
				req.Headers = append(req.Headers, header)
			}

			if hasBody {
				if jsonBody != "" && inputFile != "" {
					return fmt.Errorf("cannot use both --body and --input flags")
				}
				body, err := buildRequestBody(fields, rawFields, inputFile, jsonBody)
				if err != nil {
					return err
				}
				req.Fields = body
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			opts := []api.CallOption{api.WithDecode(false)}
			if upload {
				opts = append(opts, api.WithUpload(true))
			}

			result, callErr := client.Do(cmdContext(cmd), req, opts...)
			if callErr != nil {
				// API errors still carry the response; print it before
				// failing so scripts can inspect the body.
				var apiErr *api.APIError
				if result == nil || !errors.As(callErr, &apiErr) {
					return callErr
				}
			}

			if flags.Silent {
				return callErr
			}

			if isJSON(cmd) {
				payload := apiJSONPayload(result.Raw, result.Headers, result.StatusCode, includeHeaders)
				if err := printJSON(cmd, payload); err != nil {
					return err
				}
				return callErr
			}

			out := cmd.OutOrStdout()
			if includeHeaders {
				_, _ = fmt.Fprintf(out, "HTTP %d\n", result.StatusCode)
				keys := make([]string, 0, len(result.Headers))
				for k := range result.Headers {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					for _, v := range result.Headers[k] {
						_, _ = fmt.Fprintf(out, "%s: %s\n", k, v)
					}
				}
				_, _ = fmt.Fprintln(out)
			}

			if len(result.Raw) > 0 {
				// Pretty print JSON if possible
				var jsonData any
				if err := json.Unmarshal(result.Raw, &jsonData); err == nil {
					prettyJSON, err := json.MarshalIndent(jsonData, "", "  ")
					if err == nil {
						_, _ = fmt.Fprintln(out, string(prettyJSON))
						return callErr
					}
				}
				// Fall back to raw output
				_, _ = fmt.Fprintln(out, string(result.Raw))
			}

			return callErr
		}),
	}

	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, `Extra request header as "Name: value" (repeatable, additive)`)
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as name=value (repeatable, order preserved)")
	cmd.Flags().StringVar(&payer, "payer", "", "Tax ID to send as the X-Payer-Id header")
	cmd.Flags().BoolVar(&includeHeaders, "include", false, "Include response status and headers in output")
	flagAlias(cmd.Flags(), "include", "inc")
	flagAlias(cmd.Flags(), "payer", "py")

	if hasBody {
		cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Request body field as key=value (string)")
		cmd.Flags().StringArrayVarP(&rawFields, "raw-field", "F", nil, "Request body field as key=value (JSON parsed)")
		cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read request body from file (use - for stdin)")
		cmd.Flags().StringVarP(&jsonBody, "body", "d", "", "Request body as inline JSON string")
		cmd.Flags().BoolVar(&upload, "upload", false, "Send the body as multipart form fields")
		flagAlias(cmd.Flags(), "upload", "ul")
	}

	switch method {
	case http.MethodGet:
		cmd.Example = `  # Fetch a payer
  ex api get /payer --payer 12345678909

  # List statements with ordered query parameters
  ex api get /statement --payer 12345678909 -p dateStart=2026-01-01 -p dateEnd=2026-01-31

  # Filter the response with jq
  ex api get /account --payer 12345678000195 --output json --jq '.[0].hash'

  # Show response status and headers
  ex api get /statement/parser/42 --payer 12345678909 --include`
	case http.MethodPost:
		cmd.Example = `  # Create a payer
  ex api post /payer -f taxId=12345678909 -f name="Maria Silva"

  # Inline JSON body
  ex api post /account --payer 12345678909 -d '{"bankCode":"341","number":"12345-6"}'

  # Read body from stdin
  echo '{"taxId":"12345678909","name":"Maria"}' | ex api post /payer -i -`
	case http.MethodPut:
		cmd.Example = `  # Update a payer
  ex api put /payer --payer 12345678909 -f name="Maria Souza"

  # Raw field keeps JSON types
  ex api put /account/a1b2c3 --payer 12345678909 -F 'kind="savings"'`
	}

	return cmd
}

// parseHeaderFlag parses a "Name: value" header argument.
func parseHeaderFlag(raw string) (api.Header, error) {
	name, value, found := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return api.Header{}, fmt.Errorf("invalid header %q: must be \"Name: value\"", raw)
	}
	return api.Header{Name: name, Value: strings.TrimSpace(value)}, nil
}

// parseParamFlag parses a name=value query parameter argument. Empty values
// are accepted here; the client drops them when encoding.
func parseParamFlag(raw string) (api.Param, error) {
	name, value, found := strings.Cut(raw, "=")
	if !found || name == "" {
		return api.Param{}, fmt.Errorf("invalid query parameter %q: must be name=value", raw)
	}
	return api.Param{Name: name, Value: value}, nil
}

func apiJSONPayload(respBody []byte, headers map[string][]string, statusCode int, includeHeaders bool) any {
	body := apiJSONBody(respBody)
	if !includeHeaders {
		return body
	}
	return map[string]any{
		"status":  statusCode,
		"headers": headers,
		"body":    body,
	}
}

func apiJSONBody(respBody []byte) any {
	if len(respBody) == 0 {
		return nil
	}
	if !json.Valid(respBody) {
		return string(respBody)
	}
	pretty := &bytes.Buffer{}
	if err := json.Indent(pretty, respBody, "", "  "); err != nil {
		return json.RawMessage(respBody)
	}
	return json.RawMessage(pretty.Bytes())
}

// buildRequestBody constructs the request body from fields and/or input file/inline JSON
func buildRequestBody(fields, rawFields []string, inputFile, jsonBody string) (map[string]any, error) {
	body := make(map[string]any)

	// Parse inline JSON body first (can be overridden by fields)
	if jsonBody != "" {
		if err := json.Unmarshal([]byte(jsonBody), &body); err != nil {
			return nil, fmt.Errorf("failed to parse --body JSON: %w", err)
		}
	}

	// Read from input file (can be overridden by fields)
	if inputFile != "" {
		var inputData []byte
		var err error

		if inputFile == "-" {
			inputData, err = io.ReadAll(os.Stdin)
		} else {
			inputData, err = os.ReadFile(inputFile)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}

		if err := json.Unmarshal(inputData, &body); err != nil {
			return nil, fmt.Errorf("failed to parse input JSON: %w", err)
		}
	}

	// Parse regular fields (string values)
	for _, field := range fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	// Parse raw fields (JSON values)
	for _, field := range rawFields {
		key, value, err := parseRawField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	// Return nil if no body content
	if len(body) == 0 {
		return nil, nil
	}

	return body, nil
}

// parseField parses a key=value field where value is a string
func parseField(field string) (string, string, error) {
	parts := strings.SplitN(field, "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return parts[0], parts[1], nil
}

// parseRawField parses a key=value field where value is JSON
func parseRawField(field string) (string, any, error) {
	parts := strings.SplitN(field, "=", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid raw field format %q: must be key=value", field)
	}

	key := parts[0]
	valueStr := parts[1]

	// Try to parse as JSON
	var value any
	if err := json.Unmarshal([]byte(valueStr), &value); err != nil {
		return "", nil, fmt.Errorf("invalid JSON in raw field %q: %w", key, err)
	}

	return key, value, nil
}
