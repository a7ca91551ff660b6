package adminAuth

import (
	"context"
	"testing"
)

func TestBuildRequiresCollaborators(t *testing.T) {
	if _, err := New().WithConfig(validTestConfig()).WithPermissionStore(newTestPermissions()).Build(); err == nil {
		t.Fatal("expected error without user directory")
	}
	if _, err := New().WithConfig(validTestConfig()).WithUserDirectory(newTestDirectory()).Build(); err == nil {
		t.Fatal("expected error without permission store")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, err := New().
		WithUserDirectory(newTestDirectory()).
		WithPermissionStore(newTestPermissions()).
		Build()
	if err == nil {
		t.Fatal("expected missing secret to fail Build")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().
		WithConfig(validTestConfig()).
		WithUserDirectory(newTestDirectory()).
		WithPermissionStore(newTestPermissions())

	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderCustomIDCacheWins(t *testing.T) {
	cache := NewMemoryIDCache()
	te := newTestEngine(t, nil, func(b *Builder) { b.WithIDCache(cache) })
	acc := te.dir.add(t, "alice@example.com", "+15550001", testPassword, true)
	token := loginToken(t, te, "alice@example.com")

	if _, err := te.engine.ResolveIdentity(context.Background(), token); err != nil {
		t.Fatalf("ResolveIdentity() error: %v", err)
	}
	if id, ok, _ := cache.Get(context.Background(), acc.UUID); !ok || id != acc.ID {
		t.Fatalf("expected custom cache to hold %d, got %d/%v", acc.ID, id, ok)
	}
	if te.engine.SecurityReport().IDCacheBackend != "custom" {
		t.Fatal("expected custom backend in report")
	}
}

func TestEngineHashPasswordRoundTrip(t *testing.T) {
	te := newTestEngine(t, nil)
	salt, hash, err := te.engine.HashPassword("s3cret-value")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if len(salt) != 32 || len(hash) != 128 {
		t.Fatalf("unexpected lengths salt=%d hash=%d", len(salt), len(hash))
	}
	ok, err := te.engine.verifyPassword("s3cret-value", salt, hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got %v/%v", ok, err)
	}
}
