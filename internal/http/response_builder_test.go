package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"revtrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Status(http.StatusAccepted).Header("X-Test", "1").JSON(map[string]int{"n": 1}).Write(rec)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
		msg  string
	}{
		{core.ErrInvalidDate, http.StatusBadRequest, core.ErrInvalidDate.Error()},
		{fmt.Errorf("%w: empty body", errBadRequest), http.StatusBadRequest, "bad request: empty body"},
		{fmt.Errorf("entry x: %w", core.ErrNotFound), http.StatusNotFound, "entry x: not found"},
		{core.ErrFormInactive, http.StatusNotFound, core.ErrFormInactive.Error()},
		{fmt.Errorf("%w: slug taken", core.ErrConflict), http.StatusConflict, "conflict: slug taken"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.msg, body.Error)
	}
}
