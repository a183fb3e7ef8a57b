package postgres

import (
	"testing"

	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/stretchr/testify/assert"
)

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "created_at DESC, seq DESC", orderBy(credit.DefaultQuery()))
	assert.Equal(t, "type ASC, seq ASC", orderBy(credit.Query{SortBy: credit.SortType}))
	assert.Equal(t, "created_at DESC, seq DESC", orderBy(credit.Query{SortBy: "id; --", Desc: true}))
}

func TestConfig_ConnString(t *testing.T) {
	assert.Equal(t, "postgres://u@h/db", Config{URL: "postgres://u@h/db", Host: "ignored"}.connString())
	assert.Contains(t, Config{Host: "db", Port: "5432", Database: "credits", SSLMode: "disable"}.connString(), "host=db port=5432")
}
