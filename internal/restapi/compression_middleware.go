package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// CompressionConfig holds configuration options for response compression
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes to compress (default: 1024)
	MinSize int
	// Level is the compression level 1-9 (default: 6)
	Level int
	// ExceptContentTypes are never compressed.
	ExceptContentTypes []string
}

// DefaultCompressionConfig leaves event streams and protobuf feeds uncompressed.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:            1024,
		Level:              6,
		ExceptContentTypes: []string{"text/event-stream", "application/x-protobuf"},
	}
}

// NewCompressionMiddleware creates a compression middleware with the given configuration
func NewCompressionMiddleware(config CompressionConfig) func(http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(config.MinSize),
		gzhttp.CompressionLevel(config.Level),
		gzhttp.ExceptContentTypes(config.ExceptContentTypes),
	)
	return func(next http.Handler) http.Handler {
		if err != nil {
			return gzhttp.GzipHandler(next)
		}
		return wrapper(next)
	}
}

// CompressionMiddleware applies gzip compression with default settings
func CompressionMiddleware(next http.Handler) http.Handler {
	return NewCompressionMiddleware(DefaultCompressionConfig())(next)
}
