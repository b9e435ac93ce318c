package models

import (
	"fmt"
	"time"
)

// Slot is one fixed interval in a worker's day.
type Slot struct {
	StartTime   string     `bson:"startTime" json:"startTime"` // "HH:MM", local time of day
	EndTime     string     `bson:"endTime" json:"endTime"`
	IsAvailable bool       `bson:"isAvailable" json:"isAvailable"`
	IsBooked    bool       `bson:"isBooked" json:"isBooked"`
	IsBlocked   bool       `bson:"isBlocked" json:"isBlocked"` // derived from neighbours, see recomputeBlocks
	HeldBy      string     `bson:"heldBy,omitempty" json:"heldBy,omitempty"`
	HeldUntil   *time.Time `bson:"heldUntil,omitempty" json:"heldUntil,omitempty"`
	BookedBy    string     `bson:"bookedBy,omitempty" json:"bookedBy,omitempty"`
}

// HoldLive reports whether the slot carries an unexpired hold.
func (s Slot) HoldLive(now time.Time) bool {
	return !s.IsBooked && s.HeldBy != "" && s.HeldUntil != nil && s.HeldUntil.After(now)
}

// HoldStale reports whether the slot carries a hold whose deadline has passed.
func (s Slot) HoldStale(now time.Time) bool {
	return !s.IsBooked && s.HeldUntil != nil && !s.HeldUntil.After(now)
}

// claimed is true when the slot forces its neighbours into the buffer.
func (s Slot) claimed(now time.Time) bool {
	return s.IsBooked || s.HoldLive(now)
}

func (s *Slot) clearHold() {
	s.HeldBy = ""
	s.HeldUntil = nil
}

// SlotTemplate describes how a fresh day is cut into slots.
type SlotTemplate struct {
	DayStart    string `mapstructure:"DAY_START"`
	DayEnd      string `mapstructure:"DAY_END"`
	SlotMinutes int    `mapstructure:"SLOT_MINUTES"`
}

// DefaultSlotTemplate is 09:00–19:00 in 30-minute steps.
var DefaultSlotTemplate = SlotTemplate{DayStart: "09:00", DayEnd: "19:00", SlotMinutes: 30}

const clockLayout = "15:04"

// ParseClock parses an "HH:MM" time of day into minutes from midnight.
func ParseClock(v string) (int, error) {
	t, err := time.Parse(clockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Generate cuts [DayStart, DayEnd) into SlotMinutes-wide slots. A trailing
// remainder shorter than one slot is dropped.
func (t SlotTemplate) Generate() ([]Slot, error) {
	start, err := ParseClock(t.DayStart)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(t.DayEnd)
	if err != nil {
		return nil, err
	}
	if t.SlotMinutes <= 0 {
		return nil, fmt.Errorf("slot width must be positive, got %d", t.SlotMinutes)
	}
	if end <= start {
		return nil, fmt.Errorf("day end %s must be after day start %s", t.DayEnd, t.DayStart)
	}

	slots := make([]Slot, 0, (end-start)/t.SlotMinutes)
	for m := start; m+t.SlotMinutes <= end; m += t.SlotMinutes {
		slots = append(slots, Slot{
			StartTime:   FormatClock(m),
			EndTime:     FormatClock(m + t.SlotMinutes),
			IsAvailable: true,
		})
	}
	return slots, nil
}
