package s3

import (
	"io"
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "applications/1/2/file.pdf", want: "applications/1/2/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "applications/1/2/file.pdf", want: "root/applications/1/2/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "applications/1/2/file.pdf", want: "root/applications/1/2/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/applications/1/2/file.pdf", want: "root/applications/1/2/file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "applications/1/2/file.pdf", want: "root/sub/applications/1/2/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestCountingReaderTracksBytes(t *testing.T) {
	c := &countingReader{r: strings.NewReader("transcript")}
	if _, err := io.Copy(io.Discard, c); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if c.n != int64(len("transcript")) {
		t.Fatalf("expected %d bytes counted, got %d", len("transcript"), c.n)
	}
}
