package browser

import (
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", opts.Timeout)
	}

	if opts.SettleDelay != 3*time.Second {
		t.Errorf("Expected settle delay to be 3s, got %v", opts.SettleDelay)
	}

	if opts.ViewportWidth != 1920 || opts.ViewportHeight != 1080 {
		t.Errorf("Expected viewport to be 1920x1080, got %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}

	if opts.Locale != "et-EE" {
		t.Errorf("Expected locale to be et-EE, got %s", opts.Locale)
	}
}

func TestWithDefaults(t *testing.T) {
	var nilOpts *Options
	if got := nilOpts.withDefaults(); got.Timeout != 30*time.Second {
		t.Errorf("Expected defaults for nil options, got timeout %v", got.Timeout)
	}

	opts := &Options{Headless: false, Timeout: 5 * time.Second, SettleDelay: 0}
	got := opts.withDefaults()

	if got.Headless {
		t.Error("Expected headless=false to be preserved")
	}
	if got.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s to be preserved, got %v", got.Timeout)
	}
	if got.SettleDelay != 0 {
		t.Errorf("Expected zero settle delay to be preserved, got %v", got.SettleDelay)
	}
	if got.Locale != "et-EE" || got.UserAgent == "" {
		t.Errorf("Expected locale and user agent defaults, got %q %q", got.Locale, got.UserAgent)
	}
	if opts.Locale != "" {
		t.Error("Expected input options to be left untouched")
	}
}
