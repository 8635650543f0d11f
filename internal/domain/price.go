package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxNameLength ограничивает длину имени клиента и названия позиции.
const MaxNameLength = 150

const currencyPlaces = 2

// MaxPrice - наибольшая цена, которую вмещает NUMERIC(12,2).
var MaxPrice = decimal.RequireFromString("9999999999.99")

// Только обычная десятичная запись: без экспоненты, длина частей ограничена.
var plainDecimalPattern = regexp.MustCompile(`^[+-]?[0-9]{1,20}(\.[0-9]{1,20})?$`)

// ParsePrice разбирает цену из формы.
// Возвращает ValidationError, если строка не обычное десятичное число,
// цена отрицательная, больше MaxPrice или точнее копейки.
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, NewValidationError("price", "price is required")
	}

	if !plainDecimalPattern.MatchString(raw) {
		return decimal.Decimal{}, NewValidationError("price", "price must be a number")
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, NewValidationError("price", "price must be a number")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, NewValidationError("price", "price must be non-negative")
	}
	if price.GreaterThan(MaxPrice) {
		return decimal.Decimal{}, NewValidationError("price", "price must not exceed 9999999999.99")
	}
	if !price.Equal(price.Round(currencyPlaces)) {
		return decimal.Decimal{}, NewValidationError("price", "price must have at most two decimal places")
	}

	return price, nil
}

// FormatPrice форматирует сумму для показа: $5.75.
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(currencyPlaces)
}

// NormalizeName обрезает пробелы и проверяет, что имя не пустое и не длиннее MaxNameLength.
func NormalizeName(field, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", NewValidationError(field, field+" is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", NewValidationError(field, field+" must not exceed 150 characters")
	}
	return name, nil
}
