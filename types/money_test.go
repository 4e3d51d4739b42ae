package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"TRY", TRY(100000), 100000, "try", "₺1000.00"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"Zero TRY", Zero("TRY"), 0, "try", "₺0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		want     Money
		wantErr  bool
	}{
		{"1000.00", "try", TRY(100000), false},
		{"1000", "TRY", TRY(100000), false},
		{"1000.5", "try", TRY(100050), false},
		{"0.01", "usd", USD(1), false},
		{".5", "try", TRY(50), false},
		{" 42 ", "", TRY(4200), false},
		{"-12.30", "eur", EUR(-1230), false},
		{"100", "jpy", Money{Amount: 100, Currency: "jpy"}, false},
		{"1.005", "try", Money{}, true},
		{"1,000", "try", Money{}, true},
		{"abc", "try", Money{}, true},
		{"", "try", Money{}, true},
		{"-", "try", Money{}, true},
		{"1.5", "jpy", Money{}, true},
		{"92233720368547758.07", "try", TRY(math.MaxInt64), false},
		{"9223372036854775807", "jpy", Money{Amount: math.MaxInt64, Currency: "jpy"}, false},
		{"92233720368547758.08", "try", Money{}, true},
		{"100000000000000000", "try", Money{}, true},
		{"200000000000000000", "try", Money{}, true},
		{"-200000000000000000", "usd", Money{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in, tt.currency)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseMoney(%q): got err %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseMoney(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return TRY(100).Add(TRY(200)) }, TRY(300)},
		{"Subtract", func() Money { return TRY(500).Subtract(TRY(200)) }, TRY(300)},
		{"Negate", func() Money { return TRY(100).Negate() }, TRY(-100)},
		{"Remaining balance", func() Money {
			return TRY(100000).Subtract(TRY(40000).Add(TRY(60000)))
		}, TRY(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = TRY(100).Add(EUR(100))
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", TRY(100), TRY(100), false, false, true},
		{"Less", TRY(50), TRY(100), true, false, false},
		{"Greater", TRY(200), TRY(100), false, true, false},
		{"Zero equal", TRY(0), Zero("try"), false, false, true},
		{"Negative less", TRY(-100), TRY(100), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{TRY(4900), "49.00"},
		{TRY(1), "0.01"},
		{TRY(0), "0.00"},
		{TRY(-4900), "-49.00"},
		{TRY(-1), "-0.01"},
		{Money{Amount: 12345, Currency: "jpy"}, "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.expected {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	m := TRY(125000)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"amount":125000,"currency":"try","display":"₺1250.00"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}

	var restored Money
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !restored.Equal(m) {
		t.Errorf("Unmarshal: got %v, want %v", restored, m)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []Money
		expected Money
	}{
		{"Empty", []Money{}, Zero(DefaultCurrency)},
		{"Single", []Money{TRY(100)}, TRY(100)},
		{"Multiple", []Money{TRY(50000), TRY(75000)}, TRY(125000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sum(tt.values...)
			if !result.Equal(tt.expected) {
				t.Errorf("Sum: got %v, want %v", result, tt.expected)
			}
		})
	}
}

func BenchmarkParseMoney(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = ParseMoney("1234.56", "try")
	}
}
