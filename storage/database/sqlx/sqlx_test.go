package sqlxrepos

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/subject"
)

func TestTrapNoRows(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
		wantShutdown bool
	}{
		{name: "no rows", err: sql.ErrNoRows, wantNotFound: true},
		{name: "wrapped no rows", err: errors.Wrap(sql.ErrNoRows, "scanning"), wantNotFound: true},
		{name: "missing table", err: &pq.Error{Code: undefinedTable, Message: `relation "subject" does not exist`}, wantShutdown: true},
		{name: "missing column", err: &pq.Error{Code: undefinedColumn, Message: `column "base_total" does not exist`}, wantShutdown: true},
		{name: "unique violation", err: &pq.Error{Code: uniqueViolation}},
		{name: "connection refused", err: errors.New("dial tcp: connection refused")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := trapNoRows(tc.err, subject.ErrNotFound, "finding subject")
			if tc.wantNotFound {
				assert.Equal(t, subject.ErrNotFound, err)
				return
			}
			assert.NotEqual(t, subject.ErrNotFound, err)
			assert.Equal(t, tc.wantShutdown, core.IsShutdown(err))
			assert.Contains(t, err.Error(), "finding subject")
		})
	}
}
