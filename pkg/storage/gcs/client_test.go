package gcs

import (
	"context"
	"strings"
	"testing"

	"github.com/daisydays/daisydays-backend/pkg/config"
)

func TestObjectNameKeepsExtensionUnderPrefix(t *testing.T) {
	c := &Client{bucket: "dd-media", publicBase: "https://storage.googleapis.com", prefix: "daisydays"}

	name := c.objectName("/products/", "Sunflower.JPG")
	if !strings.HasPrefix(name, "daisydays/products/") {
		t.Fatalf("unexpected prefix in %q", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("expected lowercased extension in %q", name)
	}
	if other := c.objectName("products", "Sunflower.JPG"); other == name {
		t.Fatal("expected unique object names")
	}
}

func TestObjectNameWithoutPrefix(t *testing.T) {
	c := &Client{bucket: "b"}
	name := c.objectName("profiles", "me.png")
	if !strings.HasPrefix(name, "profiles/") {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestPublicURL(t *testing.T) {
	c := &Client{bucket: "dd-media", publicBase: "https://cdn.example.com"}
	got := c.PublicURL("daisydays/products/a.png")
	want := "https://cdn.example.com/dd-media/daisydays/products/a.png"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestNilClientOperationsFail(t *testing.T) {
	var c *Client
	if _, err := c.Upload(context.Background(), "p", "a.png", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
	if err := c.Delete(context.Background(), "x"); err == nil {
		t.Fatal("expected delete error")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
