package services

import (
	"strings"

	"github.com/magabrotheeeer/elearning-platform/internal/models"
)

type discountKind uint8

const (
	kindNone discountKind = iota
	kindPercentage
	kindFixedCents
)

// Discount скидка акции: либо процент, либо фиксированная сумма в центах.
type Discount struct {
	kind  discountKind
	value int64
}

// NoDiscount скидка, не меняющая цену.
var NoDiscount = Discount{}

// Percentage скидка в процентах, значение ограничено 100.
func Percentage(p int64) Discount {
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return Discount{kind: kindPercentage, value: p}
}

// FixedCents скидка на фиксированную сумму.
func FixedCents(c int64) Discount {
	if c < 0 {
		c = 0
	}
	return Discount{kind: kindFixedCents, value: c}
}

// Apply возвращает цену после скидки, не ниже нуля.
func (d Discount) Apply(priceCents int64) int64 {
	var final int64
	switch d.kind {
	case kindPercentage:
		final = priceCents - priceCents*d.value/100
	case kindFixedCents:
		final = priceCents - d.value
	default:
		final = priceCents
	}
	if final < 0 {
		return 0
	}
	return final
}

func (d Discount) IsPercentage() bool { return d.kind == kindPercentage }
func (d Discount) IsFixed() bool      { return d.kind == kindFixedCents }
func (d Discount) Value() int64       { return d.value }

// Известные значения поля type акции.
var (
	percentageTypes = map[string]bool{"percentage": true, "percent": true}
	fixedTypes      = map[string]bool{"fixed": true, "fixed_cents": true, "flat": true, "amount": true}
)

// KnownType сообщает, задаёт ли строка тип скидки явно.
func KnownType(t string) bool {
	t = strings.ToLower(strings.TrimSpace(t))
	return percentageTypes[t] || fixedTypes[t]
}

// DiscountFor определяет скидку акции. Явный тип имеет приоритет;
// для неизвестного типа значение до 100 включительно считается процентом,
// большее значение суммой в центах.
func DiscountFor(p *models.Promotion) Discount {
	if p == nil {
		return NoDiscount
	}
	t := strings.ToLower(strings.TrimSpace(p.Type))
	switch {
	case percentageTypes[t]:
		return Percentage(p.Value)
	case fixedTypes[t]:
		return FixedCents(p.Value)
	case p.Value <= 100:
		return Percentage(p.Value)
	default:
		return FixedCents(p.Value)
	}
}
