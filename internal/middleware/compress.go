package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DecompressMiddleware transparently unwraps gzip request bodies so handlers
// always decode plain JSON.
func DecompressMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			next.ServeHTTP(w, r)
			return
		}

		gr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, "failed to decompress", http.StatusBadRequest)
			return
		}
		defer gr.Close()

		r.Body = gr
		next.ServeHTTP(w, r)
	})
}

// CompressMiddleware gzips responses for clients that accept it. Close errors
// surface only in the log; by then the status line is already on the wire.
func CompressMiddleware(logger *zap.SugaredLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Encoding", "gzip")
			cw := &compressedWriter{ResponseWriter: w, gz: gzip.NewWriter(w)}
			defer func() {
				if err := cw.close(); err != nil {
					logger.Errorf("failed to close gzip writer: %v", err)
				}
			}()

			next.ServeHTTP(cw, r)
		})
	}
}

type compressedWriter struct {
	http.ResponseWriter
	gz *gzip.Writer
}

func (w *compressedWriter) Write(b []byte) (int, error) {
	return w.gz.Write(b)
}

func (w *compressedWriter) close() error {
	if err := w.gz.Flush(); err != nil {
		return err
	}
	return w.gz.Close()
}
