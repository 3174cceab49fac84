package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
)

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", fmt.Errorf("load project: %w", apperr.ErrNotFound), http.StatusNotFound, "load project: not found"},
		{"conflict", apperr.ErrConflict, http.StatusConflict, "conflict"},
		{"internal hides detail", fmt.Errorf("push: secret detail: %w", apperr.ErrInternalConsistency), http.StatusInternalServerError, "Internal Server Error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, nil, tt.err)

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			var body ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.StatusCode != tt.status || body.Message != tt.message {
				t.Errorf("body: got %+v, want status %d message %q", body, tt.status, tt.message)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Alpha"}`))
	if err := Decode(r, &dst); err != nil || dst.Name != "Alpha" {
		t.Errorf("Decode: got (%q, %v)", dst.Name, err)
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"nope":1}`))
	if err := Decode(r, &dst); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("Decode unknown field: got %v, want ErrBadRequest", err)
	}
}
