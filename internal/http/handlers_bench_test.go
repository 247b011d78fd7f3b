package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func benchmarkSurface(b *testing.B, method string) {
	env := newTestEnv(b, &tableSource{doc: fixtureCSV}, nil, nil)
	path := "/api/surface?date=2025-01-01&variable=pm25&method=" + method

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("status = %d", w.Code)
		}
	}
}

func BenchmarkGetSurface_IDW(b *testing.B)     { benchmarkSurface(b, "idw") }
func BenchmarkGetSurface_Kriging(b *testing.B) { benchmarkSurface(b, "kriging") }
