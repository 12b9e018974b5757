package vectorstore

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant:9000",
			wantHost: "qdrant",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcEndpoint(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcEndpoint() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcEndpoint() unexpected error: %v", err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("grpcEndpoint() = (%s, %d), want (%s, %d)", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"article_id": int64(7),
		"number":     "12",
		"score":      0.5,
		"indexed":    true,
	})

	got := convertPayloadToMap(payload)

	if got["article_id"] != int64(7) {
		t.Errorf("article_id = %v (%T), want int64 7", got["article_id"], got["article_id"])
	}
	if got["number"] != "12" {
		t.Errorf("number = %v, want 12", got["number"])
	}
	if got["score"] != 0.5 {
		t.Errorf("score = %v, want 0.5", got["score"])
	}
	if got["indexed"] != true {
		t.Errorf("indexed = %v, want true", got["indexed"])
	}
}
