package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/vmchat/pkg/adapters/memory"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{`\b\d{1,3}(\.\d{1,3}){3}\b`, `(?i)password=\S+`})
	if err != nil {
		t.Fatal(err)
	}
	store := mw(underlyingStore)

	ctx := context.Background()
	msg := domain.Message{Role: domain.RoleUser, Content: "vm at 10.0.0.12 uses password=hunter2"}
	if err := store.Append(ctx, "s1", msg); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	stored, err := underlyingStore.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	want := "vm at *** uses ***"
	if stored[0].Content != want {
		t.Errorf("Expected %q, got %q", want, stored[0].Content)
	}
	if msg.Content != "vm at 10.0.0.12 uses password=hunter2" {
		t.Error("Caller's message was modified")
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestChain_RedactsBeforeEncrypting(t *testing.T) {
	underlyingStore := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"secret"})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}
	store := middleware.Chain(underlyingStore, pii, enc)

	ctx := context.Background()
	if err := store.Append(ctx, "s1", domain.Message{Role: domain.RoleUser, Content: "the secret vm"}); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded[0].Content != "the *** vm" {
		t.Errorf("Expected redacted content after decrypting, got %q", loaded[0].Content)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}
