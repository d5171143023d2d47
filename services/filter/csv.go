package filter

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

var emailHeaderNames = map[string]bool{
	"email":  true,
	"e-mail": true,
	"mail":   true,
}

// ParseRecipients reads a CSV with a header row and returns one Row per data
// row. The email column is detected by header name (email, e-mail or mail,
// case-insensitive); the remaining columns become personalization fields
// keyed by their header.
func ParseRecipients(reader io.Reader) ([]Row, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, blastpipe_errors.ErrNoEmailColumn
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	emailColumn := -1
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
		if emailColumn == -1 && emailHeaderNames[strings.ToLower(columns[i])] {
			emailColumn = i
		}
	}
	if emailColumn == -1 {
		return nil, blastpipe_errors.ErrNoEmailColumn
	}

	var rows []Row
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV row")
		}

		row := Row{Data: models.JSONMap{}}
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			value = strings.TrimSpace(value)
			if i == emailColumn {
				row.Email = value
				continue
			}
			if columns[i] != "" {
				row.Data[columns[i]] = value
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ImportCSV parses, filters and persists a recipient list in one shot. The
// returned Result reports what the filter dropped; an import whose every row
// is dropped fails with ErrListEmpty and persists nothing.
func (s *Service) ImportCSV(ctx context.Context, userID, listName string, reader io.Reader) (*models.RecipientList, *Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FilterService.ImportCSV")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	rows, err := ParseRecipients(reader)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}

	result, err := s.FilterRows(ctx, userID, rows)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}
	if len(result.Valid) == 0 {
		tracing.TraceErr(span, blastpipe_errors.ErrListEmpty)
		return nil, result, blastpipe_errors.ErrListEmpty
	}

	list := &models.RecipientList{
		UserID:         userID,
		Name:           listName,
		RecipientCount: len(result.Valid),
	}
	recipients := make([]*models.Recipient, len(result.Valid))
	for i, row := range result.Valid {
		recipients[i] = &models.Recipient{
			Email: row.Email,
			Data:  row.Data,
		}
	}

	if err := s.repositories.RecipientRepository.CreateList(ctx, list, recipients); err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}

	s.log.Infof("imported recipient list %s with %d recipients for user %s", list.ID, list.RecipientCount, userID)
	return list, result, nil
}
