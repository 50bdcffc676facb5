package models

import "time"

// Promotion — глобальная скидка, действующая в окне [ValidFrom, ValidTo].
// Пустая граница окна считается открытой.
type Promotion struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Value     int64      `json:"value"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ActiveAt сообщает, попадает ли момент now в окно действия акции.
func (p *Promotion) ActiveAt(now time.Time) bool {
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && now.After(*p.ValidTo) {
		return false
	}
	return true
}
