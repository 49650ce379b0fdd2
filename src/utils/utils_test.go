package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestHashBytes(t *testing.T) {
	// SHA-256 of the empty payload is a fixed, well-known digest.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashBytes(nil))

	a := HashBytes([]byte("workbook one"))
	b := HashBytes([]byte("workbook two"))
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashBytes([]byte("workbook one")))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 3.14, RoundFloat(3.14159, 2))
	assert.Equal(t, 2.72, RoundFloat(2.71828, 2))
	assert.Equal(t, 40.0, RoundFloat(40.0, 2))
	assert.Equal(t, -3.14, RoundFloat(-3.14159, 2))
}

func TestSendJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSONError(rec, "file too large", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "file too large"}`, rec.Body.String())
}
