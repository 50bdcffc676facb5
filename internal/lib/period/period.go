// Package period расчёт окончания оплаченного периода подписки.
package period

import "time"

// Day длительность суток в расчётах периода. Календарные месяцы не используются.
const Day = 24 * time.Hour

// Extend возвращает новую дату окончания при продлении на days суток.
// Если текущий период ещё не закончился, срок добавляется к нему,
// иначе отсчитывается от now.
func Extend(currentEnd, now time.Time, days int) time.Time {
	base := now
	if currentEnd.After(now) {
		base = currentEnd
	}
	return base.Add(time.Duration(days) * Day)
}

// DaysLeft число полных суток до end, не меньше нуля.
func DaysLeft(end, now time.Time) int {
	if !end.After(now) {
		return 0
	}
	return int(end.Sub(now) / Day)
}
