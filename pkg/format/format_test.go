package format

import (
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	if got := Date(time.Date(2026, 1, 12, 14, 5, 0, 0, time.UTC)); got != "12 Jan 2026" {
		t.Errorf("Date = %q", got)
	}
	if got := Date(time.Time{}); got != "" {
		t.Errorf("Date(zero) = %q, want empty", got)
	}
}

func TestDateTime(t *testing.T) {
	if got := DateTime(time.Date(2026, 1, 12, 14, 5, 0, 0, time.UTC)); got != "12 Jan 2026 14:05" {
		t.Errorf("DateTime = %q", got)
	}
}

func TestCurrency(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     string
	}{
		{250, "USD", "USD 250.00"},
		{99.9, " eur ", "EUR 99.90"},
		{10, "", "10.00"},
	}
	for _, tc := range cases {
		if got := Currency(tc.amount, tc.currency); got != tc.want {
			t.Errorf("Currency(%v, %q) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestFileSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{2 << 20, "2.0 MB"},
	}
	for _, tc := range cases {
		if got := FileSize(tc.bytes); got != tc.want {
			t.Errorf("FileSize(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"jane@example.org", " spaced@example.org ", "a.b+c@sub.example.co"}
	for _, s := range valid {
		if !ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = false", s)
		}
	}
	invalid := []string{"", "jane", "jane@", "@example.org", "jane example@x.y"}
	for _, s := range invalid {
		if ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = true", s)
		}
	}
}

func TestValidPhone(t *testing.T) {
	if !ValidPhone("+1 555 867 5309") {
		t.Error("international number rejected")
	}
	if ValidPhone("not a phone") {
		t.Error("garbage accepted")
	}
}

func TestFileExtension(t *testing.T) {
	if got := FileExtension("Paper.PDF"); got != "pdf" {
		t.Errorf("FileExtension = %q", got)
	}
	if got := FileExtension("noext"); got != "" {
		t.Errorf("FileExtension(noext) = %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"my paper (final).pdf", "my_paper__final_.pdf"},
		{"../../etc/passwd", "passwd"},
		{"  ", "file"},
		{"simple.pdf", "simple.pdf"},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
