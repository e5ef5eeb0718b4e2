// input/json.go
package input

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/identityops/idassign/model"
)

// ParseJSONFile reads assignment requests from a JSON file holding an array
// of request objects.
func ParseJSONFile(path string) ([]model.AssignmentRequest, []ValidationError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return ParseJSON(f)
}

// ParseJSON decodes an array of assignment requests. Unknown fields are
// rejected so typos never silently drop data; per-object validation errors
// do not abort the rest of the array.
func ParseJSON(r io.Reader) ([]model.AssignmentRequest, []ValidationError, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("input must be a JSON array of requests: %w", err)
	}

	var (
		requests   []model.AssignmentRequest
		validation []ValidationError
	)
	for i, msg := range raw {
		// Rows are numbered from 1 in every input format.
		rowIndex := i + 1

		var req model.AssignmentRequest
		dec := json.NewDecoder(strings.NewReader(string(msg)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			validation = append(validation, ValidationError{
				SourceIndex: rowIndex,
				SourceRow:   string(msg),
				Message:     fmt.Sprintf("invalid request object: %v", err),
			})
			continue
		}

		req.SourceIndex = rowIndex
		req.SourceRow = string(msg)
		req.PrincipalType = model.PrincipalType(strings.ToUpper(string(req.PrincipalType)))

		if problems := validateRequest(req); len(problems) > 0 {
			validation = append(validation, ValidationError{
				SourceIndex: rowIndex,
				SourceRow:   string(msg),
				Message:     strings.Join(problems, "; "),
			})
			continue
		}
		requests = append(requests, req)
	}

	return requests, validation, nil
}
