package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anass1209/NL2SQL/pkg/apperrors"
)

func TestValidateAndNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "empty", input: "   ", want: ""},
		{name: "no semicolon", input: "SELECT 1", want: "SELECT 1"},
		{name: "trailing semicolon", input: "SELECT * FROM customers;", want: "SELECT * FROM customers"},
		{name: "semicolon with whitespace", input: "  SELECT 1 ;  \n", want: "SELECT 1"},
		{name: "semicolon in string", input: "SELECT * FROM t WHERE note = 'a;b';", want: "SELECT * FROM t WHERE note = 'a;b'"},
		{name: "doubled quote", input: "SELECT * FROM t WHERE name = 'O''Brien;';", want: "SELECT * FROM t WHERE name = 'O''Brien;'"},
		{name: "quoted identifier", input: `SELECT "a;b" FROM t;`, want: `SELECT "a;b" FROM t`},
		{name: "line comment", input: "SELECT 1 -- done; really\n;", want: "SELECT 1 -- done; really"},
		{name: "block comment", input: "SELECT /* ; */ 1;", want: "SELECT /* ; */ 1"},
		{name: "two statements", input: "SELECT 1; SELECT 2;", wantErr: ErrMultipleStatements},
		{name: "piggybacked delete", input: "SELECT 1; DELETE FROM customers", wantErr: ErrMultipleStatements},
		{name: "double semicolon", input: "SELECT 1;;", wantErr: ErrMultipleStatements},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateAndNormalize(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Error, tt.wantErr)
				return
			}
			require.NoError(t, res.Error)
			assert.Equal(t, tt.want, res.NormalizedSQL)
		})
	}
}

func TestLeadingKeyword(t *testing.T) {
	assert.Equal(t, "SELECT", LeadingKeyword("  select * from t"))
	assert.Equal(t, "SELECT", LeadingKeyword("SELECT\n1"))
	assert.Equal(t, "DELETE", LeadingKeyword("DELETE FROM t;"))
	assert.Equal(t, "WITH", LeadingKeyword("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "", LeadingKeyword("  "))
	assert.Equal(t, "", LeadingKeyword("(SELECT 1)"))
}

func TestCheckExecutable(t *testing.T) {
	got, err := CheckExecutable("SELECT * FROM customers WHERE city='Casablanca';")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM customers WHERE city='Casablanca'", got)

	_, err = CheckExecutable("DELETE FROM t;")
	assert.ErrorIs(t, err, apperrors.ErrNotSelect)

	_, err = CheckExecutable("SELECTED")
	assert.ErrorIs(t, err, apperrors.ErrNotSelect)

	_, err = CheckExecutable("SELECT 1; DROP TABLE customers;")
	assert.ErrorIs(t, err, ErrMultipleStatements)
}
