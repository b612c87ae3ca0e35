package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftbus/bus-booking-api/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Custom": {"a", "b"}}
	body := []byte(`{"cities":[]}`)

	enc, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(enc)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}, []byte("short"), append(make([]byte, 8), 0xff)} {
		if _, _, _, ok := decodePayload(bs); ok && len(bs) < 8 {
			t.Fatalf("decoded invalid payload %v", bs)
		}
	}
	// Header length pointing past the buffer must be rejected.
	bad := make([]byte, 8)
	bad[7] = 0xff
	_, _, _, ok := decodePayload(bad)
	assert.False(t, ok)
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	e := echo.New()

	ctxFor := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/schedules/search")
		return c
	}

	k1 := cacheKeyFrom(cfg, ctxFor("/v1/schedules/search?from_city_id=1&to_city_id=2&date=2026-09-05"))
	k2 := cacheKeyFrom(cfg, ctxFor("/v1/schedules/search?from_city_id=1&to_city_id=3&date=2026-09-05"))
	k3 := cacheKeyFrom(cfg, ctxFor("/v1/schedules/search?from_city_id=1&to_city_id=2&date=2026-09-05"))

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, k3)
	assert.Contains(t, k1, "cache:")
}

func TestCaptureWriterMarksTruncation(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	_, err := cw.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)

	assert.True(t, cw.truncated)
	assert.Equal(t, "0123456789abcdef", rec.Body.String(), "client still gets the full body")
}
