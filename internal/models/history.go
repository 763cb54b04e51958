package models

import "sort"

// HistoryEntry is a net-worth observation at day granularity. Dates use the
// "2006-01-02" form; the tracker keeps at most one entry per date.
type HistoryEntry struct {
	Date     string  `json:"date"`
	NetWorth float64 `json:"netWorth"`
}

// UpsertHistory inserts or replaces the entry for its date and returns the
// list sorted ascending by date.
func UpsertHistory(entries []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	for i := range entries {
		if entries[i].Date == entry.Date {
			entries[i].NetWorth = entry.NetWorth
			return entries
		}
	}
	entries = append(entries, entry)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries
}

// RemoveHistory deletes the entry for the given date, if present.
func RemoveHistory(entries []HistoryEntry, date string) []HistoryEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Date != date {
			out = append(out, e)
		}
	}
	return out
}
