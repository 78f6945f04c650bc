package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationFor(query string) *Pagination {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/products?"+query, nil)
	return NewPagination(c)
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", 1, DefaultPaginationLimit, 0},
		{"page=3&limit=20", 3, 20, 40},
		{"page=-2&limit=abc", 1, DefaultPaginationLimit, 0},
		{"page=2&limit=1000", 2, MaxPaginationLimit, MaxPaginationLimit},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := paginationFor(tt.query)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestPaginationSetTotal(t *testing.T) {
	p := paginationFor("limit=10")
	p.SetTotal(21)
	assert.Equal(t, int64(21), p.Total)
	assert.Equal(t, 3, p.LastPage)

	p.SetTotal(0)
	assert.Equal(t, 0, p.LastPage)
}
