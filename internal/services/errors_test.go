package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrBusiness, "translation", "", "backend reported failure", nil)
	if !errors.Is(err, ErrBusiness) {
		t.Fatalf("expected business marker, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Fatal("business error should not match transport marker")
	}
}

func TestWrapDefaultsToTransport(t *testing.T) {
	err := Wrap(nil, "speech recognition", "http error", "", errors.New("boom"))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrTransport, "language detection", "http error", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{Wrap(ErrTransport, "translation", "", "timeout", nil), true},
		{Wrap(ErrBusiness, "video generation", "", "backend failure", nil), true},
		{Wrap(ErrValidation, "translation", "", "text required", nil), false},
		{Wrap(ErrUnsupportedLanguage, "language detection", "", "tamil", nil), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestDetailsStripsMarkerPrefix(t *testing.T) {
	err := Wrap(ErrBusiness, "translation", "", "quota exceeded", nil)
	details := Details(err)
	if details.Message != "translation: quota exceeded" {
		t.Fatalf("unexpected details message: %q", details.Message)
	}
}

func TestDetailsPassthroughForUntaggedErrors(t *testing.T) {
	details := Details(errors.New("plain failure"))
	if details.Message != "plain failure" {
		t.Fatalf("unexpected details message: %q", details.Message)
	}
	if Details(nil).Message != "" {
		t.Fatal("nil error should produce empty details")
	}
}
