// input/csv.go
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/identityops/idassign/model"
)

var csvColumns = map[string]bool{
	"principal_name":      true,
	"principal_type":      true,
	"permission_set_name": true,
	"account_name":        true,
	"principal_id":        false,
	"permission_set_arn":  false,
	"account_id":          false,
}

// ParseCSVFile reads assignment requests from a CSV file. Bad rows become
// validation errors; good rows still parse.
func ParseCSVFile(path string) ([]model.AssignmentRequest, []ValidationError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads assignment requests from CSV content. The header row is
// required; unknown columns are rejected so typos never silently drop data.
func ParseCSV(r io.Reader) ([]model.AssignmentRequest, []ValidationError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("input file is empty")
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if _, known := csvColumns[name]; !known {
			return nil, nil, fmt.Errorf("unknown column %q in CSV header", col)
		}
		columns[i] = name
	}
	for col, required := range csvColumns {
		if !required {
			continue
		}
		found := false
		for _, name := range columns {
			if name == col {
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("missing required column %q in CSV header", col)
		}
	}

	var (
		requests   []model.AssignmentRequest
		validation []ValidationError
	)
	for rowIndex := 1; ; rowIndex++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			validation = append(validation, ValidationError{
				SourceIndex: rowIndex,
				Message:     fmt.Sprintf("malformed row: %v", err),
			})
			continue
		}

		req := model.AssignmentRequest{
			SourceIndex: rowIndex,
			SourceRow:   strings.Join(record, ","),
		}
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			value = strings.TrimSpace(value)
			switch columns[i] {
			case "principal_name":
				req.PrincipalName = value
			case "principal_type":
				req.PrincipalType = model.PrincipalType(strings.ToUpper(value))
			case "permission_set_name":
				req.PermissionSetName = value
			case "account_name":
				req.AccountName = value
			case "principal_id":
				req.PrincipalID = value
			case "permission_set_arn":
				req.PermissionSetARN = value
			case "account_id":
				req.AccountID = value
			}
		}

		if problems := validateRequest(req); len(problems) > 0 {
			validation = append(validation, ValidationError{
				SourceIndex: rowIndex,
				SourceRow:   req.SourceRow,
				Message:     strings.Join(problems, "; "),
			})
			continue
		}
		requests = append(requests, req)
	}

	return requests, validation, nil
}
