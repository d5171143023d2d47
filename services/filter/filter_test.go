package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blastpipe_errors "github.com/sendgrove/blastpipe/internal/errors"
	"github.com/sendgrove/blastpipe/internal/models"
)

func rowsFromEmails(emails ...string) []Row {
	rows := make([]Row, len(emails))
	for i, email := range emails {
		rows[i] = Row{Email: email}
	}
	return rows
}

func TestApply_PartitionsEveryRowExactlyOnce(t *testing.T) {
	rows := rowsFromEmails(
		"alice@example.com",
		"blocked@example.com",
		"alice@example.com",
		"not-an-email",
		"bob@example.com",
		"",
	)
	suppressed := map[string]bool{"blocked@example.com": true}

	result := Apply(rows, suppressed)

	assert.Len(t, result.Valid, 2)
	assert.Equal(t, 2, result.Invalid)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.Suppressed)
	assert.Equal(t, len(rows), len(result.Valid)+result.Invalid+result.Duplicates+result.Suppressed)
}

func TestApply_PreservesFirstSeenOrder(t *testing.T) {
	rows := rowsFromEmails(
		"carol@example.com",
		"alice@example.com",
		"carol@example.com",
		"bob@example.com",
	)

	result := Apply(rows, nil)

	require.Len(t, result.Valid, 3)
	assert.Equal(t, "carol@example.com", result.Valid[0].Email)
	assert.Equal(t, "alice@example.com", result.Valid[1].Email)
	assert.Equal(t, "bob@example.com", result.Valid[2].Email)
}

func TestApply_SuppressedWinsOverDuplicateAndInvalid(t *testing.T) {
	// second occurrence of a suppressed address counts as suppressed, not
	// duplicate, and a suppressed address is never syntax checked
	rows := rowsFromEmails("blocked@example.com", "blocked@example.com")
	result := Apply(rows, map[string]bool{"blocked@example.com": true})

	assert.Equal(t, 2, result.Suppressed)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Invalid)
	assert.Empty(t, result.Valid)
}

func TestApply_NormalizesCaseAndWhitespace(t *testing.T) {
	rows := rowsFromEmails("  Alice@Example.COM ", "alice@example.com")
	result := Apply(rows, nil)

	require.Len(t, result.Valid, 1)
	assert.Equal(t, "alice@example.com", result.Valid[0].Email)
	assert.Equal(t, 1, result.Duplicates)
}

func TestApply_RepeatedInvalidCountsInvalidEachTime(t *testing.T) {
	// only addresses accepted into the valid set participate in dedup
	rows := rowsFromEmails("broken", "broken")
	result := Apply(rows, nil)

	assert.Equal(t, 2, result.Invalid)
	assert.Equal(t, 0, result.Duplicates)
}

func TestApply_KeepsPersonalizationData(t *testing.T) {
	rows := []Row{
		{Email: "alice@example.com", Data: models.JSONMap{"name": "Alice", "company": "Acme"}},
	}
	result := Apply(rows, nil)

	require.Len(t, result.Valid, 1)
	assert.Equal(t, "Alice", result.Valid[0].Data["name"])
	assert.Equal(t, "Acme", result.Valid[0].Data["company"])
}

func TestParseRecipients(t *testing.T) {
	csvData := "Name,Email,Company\nAlice,alice@example.com,Acme\nBob,bob@example.com,Globex\n"

	rows, err := ParseRecipients(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "alice@example.com", rows[0].Email)
	assert.Equal(t, "Alice", rows[0].Data["Name"])
	assert.Equal(t, "Acme", rows[0].Data["Company"])
	assert.Equal(t, "bob@example.com", rows[1].Email)
}

func TestParseRecipients_EmailHeaderVariants(t *testing.T) {
	for _, header := range []string{"email", "Email", "E-Mail", "MAIL"} {
		t.Run(header, func(t *testing.T) {
			rows, err := ParseRecipients(strings.NewReader(header + "\nalice@example.com\n"))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "alice@example.com", rows[0].Email)
		})
	}
}

func TestParseRecipients_NoEmailColumn(t *testing.T) {
	_, err := ParseRecipients(strings.NewReader("name,company\nAlice,Acme\n"))
	assert.ErrorIs(t, err, blastpipe_errors.ErrNoEmailColumn)
}

func TestParseRecipients_EmptyInput(t *testing.T) {
	_, err := ParseRecipients(strings.NewReader(""))
	assert.ErrorIs(t, err, blastpipe_errors.ErrNoEmailColumn)
}

func TestParseRecipients_RaggedRows(t *testing.T) {
	csvData := "email,name\nalice@example.com\nbob@example.com,Bob,extra\n"

	rows, err := ParseRecipients(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "alice@example.com", rows[0].Email)
	assert.NotContains(t, rows[0].Data, "name")
	assert.Equal(t, "Bob", rows[1].Data["name"])
}
