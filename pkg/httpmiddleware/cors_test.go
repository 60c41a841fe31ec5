package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsRequest(cfg CORSConfig, method string, set func(h http.Header)) *httptest.ResponseRecorder {
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/product", nil)
	if set != nil {
		set(req.Header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORS_CredentialedWildcardEchoesOrigin(t *testing.T) {
	cfg := CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}

	rec := corsRequest(cfg, http.MethodGet, func(h http.Header) {
		h.Set("Origin", "https://shop.example.com")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORS_CredentialedWildcardPreflight(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           86400,
	}

	rec := corsRequest(cfg, http.MethodOptions, func(h http.Header) {
		h.Set("Origin", "https://shop.example.com")
		h.Set("Access-Control-Request-Method", http.MethodPost)
	})

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORS_WildcardWithoutCredentials(t *testing.T) {
	cfg := CORSConfig{AllowOrigins: []string{"*"}}

	rec := corsRequest(cfg, http.MethodGet, func(h http.Header) {
		h.Set("Origin", "https://anywhere.example")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_SpecificOrigins(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"https://shop.example.com"},
		AllowCredentials: true,
	}

	t.Run("allowed", func(t *testing.T) {
		rec := corsRequest(cfg, http.MethodGet, func(h http.Header) {
			h.Set("Origin", "https://SHOP.example.com")
		})
		assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("denied", func(t *testing.T) {
		rec := corsRequest(cfg, http.MethodGet, func(h http.Header) {
			h.Set("Origin", "https://evil.example.com")
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Values("Vary"), "Origin")
	})
}

func TestCORS_NoOriginPassthrough(t *testing.T) {
	rec := corsRequest(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}, http.MethodGet, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
