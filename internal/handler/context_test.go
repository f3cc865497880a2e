package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func pageContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestQueryPage(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing defaults to one", "", 1},
		{"explicit page", "page=3", 3},
		{"garbage defaults to one", "page=abc", 1},
		{"zero clamps to one", "page=0", 1},
		{"negative clamps to one", "page=-1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, queryPage(pageContext(tt.query)))
		})
	}
}

func TestQueryPageOrLast(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing defaults to one", "", 1},
		{"explicit page", "page=2", 2},
		{"minus one means last page", "page=-1", -1},
		{"other negatives clamp to one", "page=-5", 1},
		{"zero clamps to one", "page=0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, queryPageOrLast(pageContext(tt.query)))
		})
	}
}
