package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest("GET", "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"limit=50&offset=10", 50, 10},
		{"limit=0", DefaultLimit, 0},
		{"limit=-5&offset=-1", DefaultLimit, 0},
		{"limit=10000", MaxLimit, 0},
		{"limit=abc", DefaultLimit, 0},
	}
	for _, tt := range tests {
		p := paramsFor(tt.query)
		if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
			t.Errorf("FromContext(%q) = %+v, want limit=%d offset=%d", tt.query, p, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestNewResponseHasMore(t *testing.T) {
	if r := NewResponse(nil, 100, 20, 0); !r.HasMore {
		t.Error("expected HasMore with 80 remaining")
	}
	if r := NewResponse(nil, 15, 20, 0); r.HasMore {
		t.Error("did not expect HasMore when total fits in first page")
	}
}
