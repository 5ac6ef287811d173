package engines

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDummyEngine(t *testing.T) {
	e := NewDummyEngine()

	t.Run("embeds crop dimensions", func(t *testing.T) {
		res, err := e.Run(context.Background(), testPNG(t, 100, 50))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}
		if res.Text != "dummy text (100x50)" {
			t.Errorf("expected dummy text (100x50), got %q", res.Text)
		}
		if res.Confidence != 0.95 {
			t.Errorf("expected confidence 0.95, got %v", res.Confidence)
		}
	})

	t.Run("garbage input fails without error", func(t *testing.T) {
		res, err := e.Run(context.Background(), []byte("not an image"))
		if err != nil {
			t.Fatalf("recognition failure must not surface as an error: %v", err)
		}
		if res.Success || res.Text != FailureText || res.Confidence != 0.0 {
			t.Errorf("expected sentinel failure result, got %+v", res)
		}
	})
}

func TestMockEngine(t *testing.T) {
	t.Run("configured failure yields sentinel", func(t *testing.T) {
		e := NewMockEngine()
		e.ShouldFail = true
		res, err := e.Run(context.Background(), testPNG(t, 10, 10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Success || res.Text != FailureText || res.Confidence != 0.0 {
			t.Errorf("expected sentinel failure result, got %+v", res)
		}
	})

	t.Run("fail after N requests", func(t *testing.T) {
		e := NewMockEngine()
		e.FailAfter = 1
		if res, _ := e.Run(context.Background(), nil); !res.Success {
			t.Error("first request should succeed")
		}
		if res, _ := e.Run(context.Background(), nil); res.Success {
			t.Error("second request should fail")
		}
	})
}

func TestRegistry(t *testing.T) {
	t.Run("builds enabled engines", func(t *testing.T) {
		r, err := NewRegistry(RegistryConfig{
			"dummy": {Type: "dummy", Enabled: true},
			"off":   {Type: "dummy", Enabled: false},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := r.Get("dummy"); err != nil {
			t.Errorf("expected dummy engine: %v", err)
		}
		if _, err := r.Get("off"); err == nil {
			t.Error("disabled engine must not be registered")
		}
	})

	t.Run("unknown type errors", func(t *testing.T) {
		if _, err := NewRegistry(RegistryConfig{"x": {Type: "nope", Enabled: true}}); err == nil {
			t.Error("expected error for unknown engine type")
		}
	})

	t.Run("vision requires api key", func(t *testing.T) {
		if _, err := NewRegistry(RegistryConfig{"v": {Type: "vision", Enabled: true}}); err == nil {
			t.Error("expected error for missing api_key")
		}
	})

	t.Run("list is sorted", func(t *testing.T) {
		r, err := NewRegistry(RegistryConfig{
			"b": {Type: "dummy", Enabled: true},
			"a": {Type: "dummy", Enabled: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		names := r.List()
		if len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Errorf("expected [a b], got %v", names)
		}
	})
}
