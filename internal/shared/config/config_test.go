package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("OBJECT_STORE_TYPE", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.MaxUploadSize != 10<<20 {
		t.Fatalf("unexpected max upload size: %d", cfg.MaxUploadSize)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("unexpected jwt ttl: %s", cfg.JWTTTL)
	}
	if cfg.ObjectStore != "local" {
		t.Fatalf("unexpected object store: %q", cfg.ObjectStore)
	}
	if !cfg.DevLike() {
		t.Fatalf("expected dev-like config")
	}
}

func TestLoadReadsEnvFileWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "S3_BUCKET=from-file\nS3_PREFIX=file-prefix\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("S3_PREFIX", "from-env")
	// Unset after the test so values loaded from the file do not leak.
	t.Setenv("S3_BUCKET", "")
	os.Unsetenv("S3_BUCKET")

	cfg := Load()
	if cfg.S3Bucket != "from-file" {
		t.Fatalf("expected bucket from file, got %q", cfg.S3Bucket)
	}
	if cfg.S3Prefix != "from-env" {
		t.Fatalf("expected env to win, got %q", cfg.S3Prefix)
	}
}

func TestValidateOutsideDev(t *testing.T) {
	cfg := Config{Env: "production", ObjectStore: "s3"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	cfg = Config{Env: "production", ObjectStore: "local", DatabaseURL: "postgres://x", JWTSecret: "s"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeStoreType(t *testing.T) {
	cases := map[string]string{"S3": "s3", "minio": "s3", "": "local", "disk": "local"}
	for in, want := range cases {
		if got := normalizeStoreType(in); got != want {
			t.Fatalf("normalizeStoreType(%q) = %q, want %q", in, got, want)
		}
	}
}
