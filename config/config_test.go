package pagestoreconfig

import "testing"

func TestValidateRejectsNonMultipleOf4096(t *testing.T) {
	cfg := Config{PageSize: 4000}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for page_size not a multiple of 4096")
	}
}

func TestValidateRejectsNonPowerOfTwo(t *testing.T) {
	// 12288 = 3*4096: a valid multiple of 4096 but not a power of two.
	cfg := Config{PageSize: 12288}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for page_size that isn't a power of two")
	}
}

func TestValidateAcceptsPowerOfTwoMultiple(t *testing.T) {
	cfg := Config{PageSize: 16384}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Config{PageSize: 4096}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.CacheCapacityPages != 1024 {
		t.Fatalf("expected default CacheCapacityPages 1024, got %d", cfg.CacheCapacityPages)
	}
	if cfg.WriterQueueCapacity != 256 {
		t.Fatalf("expected default WriterQueueCapacity 256, got %d", cfg.WriterQueueCapacity)
	}
}

func TestBitShiftMatchesPageSize(t *testing.T) {
	for _, pageSize := range []int{4096, 8192, 16384, 65536} {
		cfg := Config{PageSize: pageSize}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%d): %v", pageSize, err)
		}
		if got := 1 << cfg.BitShift(); got != pageSize {
			t.Fatalf("BitShift for page_size %d: 1<<%d = %d, want %d", pageSize, cfg.BitShift(), got, pageSize)
		}
	}
}

func TestCacheOptionsReflectsCacheCapacityPages(t *testing.T) {
	cfg := Config{PageSize: 4096, CacheCapacityPages: 512}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	opts := cfg.CacheOptions()
	if opts.CapacityPages != 512 {
		t.Fatalf("expected CacheOptions to carry CacheCapacityPages, got %d", opts.CapacityPages)
	}
}
