package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cadastro/pkg/domain-errors"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantSize     int
		wantRejected bool
	}{
		{name: "defaults", wantPage: 1, wantSize: DefaultPageSize},
		{name: "explicit values", page: 3, size: 10, wantPage: 3, wantSize: 10},
		{name: "largest size", page: 1, size: MaxPageSize, wantPage: 1, wantSize: MaxPageSize},
		{name: "negative page", page: -1, size: 10, wantRejected: true},
		{name: "negative size", page: 1, size: -5, wantRejected: true},
		{name: "size above max", page: 1, size: MaxPageSize + 1, wantRejected: true},
		{name: "offset would overflow", page: 92233720368547760, size: 100, wantRejected: true},
		{name: "max int page", page: math.MaxInt, size: 2, wantRejected: true},
		{name: "last page before overflow", page: math.MaxInt/MaxPageSize + 1, size: MaxPageSize,
			wantPage: math.MaxInt/MaxPageSize + 1, wantSize: MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size, err := NormalizePage(tt.page, tt.size)
			if tt.wantRejected {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
			assert.GreaterOrEqual(t, (page-1)*size, 0)
		})
	}
}
