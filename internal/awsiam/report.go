package awsiam

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	userColumnConstant          = "user"
	arnColumnConstant           = "arn"
	multiFactorActiveColumn     = "mfa_active"
	missingColumnErrorTemplate  = "credential report lacks column %q"
	invalidBooleanErrorTemplate = "row %d: invalid %s value %q"
	shortRowErrorTemplate       = "row %d: expected at least %d fields, found %d"
	blankUserErrorTemplate      = "row %d: blank %s value"
	emptyReportErrorMessage     = "credential report is empty"
	headerReadErrorTemplate     = "unable to read credential report header: %w"
	rowReadErrorTemplate        = "unable to read credential report row %d: %w"
	byteOrderMarkConstant       = "\uFEFF"
)

type credentialReportEntry struct {
	user              string
	arn               string
	multiFactorActive bool
}

// decodeCredentialReport parses the IAM credential report CSV. Columns are
// located by header name so that additional columns are tolerated.
func decodeCredentialReport(content []byte) ([]credentialReportEntry, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	header, headerError := reader.Read()
	if errors.Is(headerError, io.EOF) {
		return nil, errors.New(emptyReportErrorMessage)
	}
	if headerError != nil {
		return nil, fmt.Errorf(headerReadErrorTemplate, headerError)
	}

	columnIndexes := make(map[string]int, len(header))
	for columnIndex, columnName := range header {
		normalized := strings.TrimSpace(strings.TrimPrefix(columnName, byteOrderMarkConstant))
		columnIndexes[normalized] = columnIndex
	}

	requiredColumns := []string{userColumnConstant, arnColumnConstant, multiFactorActiveColumn}
	minimumFields := 0
	for _, columnName := range requiredColumns {
		columnIndex, found := columnIndexes[columnName]
		if !found {
			return nil, fmt.Errorf(missingColumnErrorTemplate, columnName)
		}
		if columnIndex+1 > minimumFields {
			minimumFields = columnIndex + 1
		}
	}

	entries := make([]credentialReportEntry, 0)
	for rowNumber := 1; ; rowNumber++ {
		record, rowError := reader.Read()
		if errors.Is(rowError, io.EOF) {
			break
		}
		if rowError != nil {
			return nil, fmt.Errorf(rowReadErrorTemplate, rowNumber, rowError)
		}
		if len(record) < minimumFields {
			return nil, fmt.Errorf(shortRowErrorTemplate, rowNumber, minimumFields, len(record))
		}

		rawMultiFactor := strings.TrimSpace(record[columnIndexes[multiFactorActiveColumn]])
		multiFactorActive, parseError := strconv.ParseBool(rawMultiFactor)
		if parseError != nil {
			return nil, fmt.Errorf(invalidBooleanErrorTemplate, rowNumber, multiFactorActiveColumn, rawMultiFactor)
		}

		user := strings.TrimSpace(record[columnIndexes[userColumnConstant]])
		if len(user) == 0 {
			return nil, fmt.Errorf(blankUserErrorTemplate, rowNumber, userColumnConstant)
		}

		entries = append(entries, credentialReportEntry{
			user:              user,
			arn:               strings.TrimSpace(record[columnIndexes[arnColumnConstant]]),
			multiFactorActive: multiFactorActive,
		})
	}

	return entries, nil
}
