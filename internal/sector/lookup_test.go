package sector

import "testing"

func TestLookup(t *testing.T) {
	if got := Lookup("AAPL"); got != "Technology" {
		t.Fatalf("AAPL sector = %s", got)
	}
	if got := Lookup("XOM"); got != "Energy" {
		t.Fatalf("XOM sector = %s", got)
	}
	if got := Lookup("ZZZZ"); got != Unknown {
		t.Fatalf("unknown symbol sector = %s", got)
	}
}
