package meet

import (
	"testing"
	"time"
)

func TestNameKey_StripsPlacePrefix(t *testing.T) {
	t.Parallel()

	if NameKey("Oslo, NM Friidrett") != NameKey("NM Friidrett") {
		t.Fatalf("expected city-prefixed and bare names to share a key")
	}
	if got := NameKey("  NM   Friidrett "); got != "nm friidrett" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestNameKey_KeepsLongHead(t *testing.T) {
	t.Parallel()

	// A long first segment is part of the name, not a place prefix.
	name := "Internasjonalt stevne med veldig langt navn, del to"
	if NameKey(name) == NameKey("del to") {
		t.Fatalf("long head must not be stripped")
	}
}

func TestKey_IncludesDate(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2019, 6, 16, 0, 0, 0, 0, time.UTC)

	if Key("NM Friidrett", d1) == Key("NM Friidrett", d2) {
		t.Fatalf("same meet name on different dates must not collide")
	}
	if Key("Oslo, NM Friidrett", d1) != Key("NM Friidrett", d1) {
		t.Fatalf("city prefix must not change the key")
	}
}
