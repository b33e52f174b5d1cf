// Package format normalises and masks user input (CPF, phone numbers, dates)
// and renders currency amounts the way the gym staff reads them.
package format

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrInvalidCPF   = errors.New("invalid CPF")
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrInvalidDate  = errors.New("invalid date")
)

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskCPF applies the 000.000.000-00 mask to the digits in s. Partial input is
// masked as far as it goes, so the function can run on every keystroke.
func MaskCPF(s string) string {
	d := Digits(s)
	if len(d) > 11 {
		d = d[:11]
	}
	return applyMask(d, "###.###.###-##")
}

// ValidCPF checks length and both check digits of a CPF.
func ValidCPF(s string) bool {
	d := Digits(s)
	if len(d) != 11 {
		return false
	}
	allSame := true
	for i := 1; i < 11; i++ {
		if d[i] != d[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}
	return cpfCheckDigit(d[:9]) == d[9] && cpfCheckDigit(d[:10]) == d[10]
}

func cpfCheckDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		rest = 0
	}
	return byte('0' + rest)
}

// NormalizeCPF returns the masked CPF or ErrInvalidCPF.
func NormalizeCPF(s string) (string, error) {
	if !ValidCPF(s) {
		return "", ErrInvalidCPF
	}
	return MaskCPF(s), nil
}

// MaskPhone masks a Brazilian phone number: (00) 00000-0000 for mobiles and
// (00) 0000-0000 for landlines.
func MaskPhone(s string) string {
	d := Digits(s)
	if len(d) > 11 {
		d = d[:11]
	}
	if len(d) == 11 {
		return applyMask(d, "(##) #####-####")
	}
	return applyMask(d, "(##) ####-####")
}

// NormalizePhone masks a complete phone number, rejecting anything that is not
// 10 or 11 digits long.
func NormalizePhone(s string) (string, error) {
	d := Digits(s)
	if len(d) != 10 && len(d) != 11 {
		return "", ErrInvalidPhone
	}
	return MaskPhone(d), nil
}

func applyMask(digits, mask string) string {
	if digits == "" {
		return ""
	}
	var b strings.Builder
	i := 0
	for _, m := range mask {
		if i >= len(digits) {
			break
		}
		if m == '#' {
			b.WriteByte(digits[i])
			i++
			continue
		}
		b.WriteRune(m)
	}
	return b.String()
}

// FormatBRL renders an amount as Brazilian reais, e.g. R$ 1.234,56.
func FormatBRL(amount float64) string {
	cents := int64(math.Round(amount * 100))
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), cents%100)
}

// ParseDate accepts DD/MM/YYYY or YYYY-MM-DD and returns the date in ISO form.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
