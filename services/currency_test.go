package services

import "testing"

func TestParseWon(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"3억 8,000만원", 380_000_000},
		{"8,500", 85_000_000},
		{"7.5억", 750_000_000},
		{"320000000원", 320_000_000},
		{"3억2천", 320_000_000},
		{"3억8000", 380_000_000},
		{"5억", 500_000_000},
		{"2천만", 20_000_000},
		{"9000만원", 90_000_000},
		{"1억 2,500만원", 125_000_000},
	}

	for _, c := range cases {
		got, ok := ParseWon(c.in)
		if !ok {
			t.Errorf("ParseWon(%q): unexpectedly no parse", c.in)
			continue
		}
		if got != c.want {
			t.Errorf("ParseWon(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseWonNoParse(t *testing.T) {
	for _, in := range []string{"", "   ", "가격문의", "원", "급매물"} {
		if got, ok := ParseWon(in); ok {
			t.Errorf("ParseWon(%q) = %d, expected no parse", in, got)
		}
	}
}

func TestSaleWonStripsTradePrefix(t *testing.T) {
	got, ok := SaleWon("매매 3억 8,000")
	if !ok || got != 380_000_000 {
		t.Errorf("SaleWon: got (%d, %v), want (380000000, true)", got, ok)
	}

	// No prefix at all also parses.
	got, ok = SaleWon("7.5억")
	if !ok || got != 750_000_000 {
		t.Errorf("SaleWon without prefix: got (%d, %v)", got, ok)
	}
}
