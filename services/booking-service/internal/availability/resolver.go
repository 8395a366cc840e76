package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barberbook/barberbook/services/booking-service/internal/model"
)

var ErrNoAvailability = errors.New("no available slots within horizon")

const DefaultHorizonDays = 7

// Store is the read side the resolver needs. WeekdaySchedule returns a
// closed schedule for weekdays that were never configured.
type Store interface {
	WeekdaySchedule(ctx context.Context, weekday int) (model.WeekdaySchedule, error)
	BookedTimes(ctx context.Context, date time.Time) ([]model.TimeOfDay, error)
}

// Day is the resolved availability of one calendar date.
type Day struct {
	Date    time.Time
	Weekday int
	Open    bool
	Slots   []SlotStatus
}

func (d Day) HasAvailable() bool {
	for _, s := range d.Slots {
		if s.Available {
			return true
		}
	}
	return false
}

type Resolver struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewResolver(store Store, loc *time.Location, now func() time.Time) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, loc: loc, now: now}
}

// Today is the current calendar date in the business timezone.
func (r *Resolver) Today() time.Time {
	return model.DateOf(r.now().In(r.loc))
}

func (r *Resolver) ForDate(ctx context.Context, date time.Time) (Day, error) {
	date = model.DateOf(date)
	weekday := model.WeekdayOf(date)
	sched, err := r.store.WeekdaySchedule(ctx, weekday)
	if err != nil {
		return Day{}, fmt.Errorf("load schedule for weekday %d: %w", weekday, err)
	}
	day := Day{Date: date, Weekday: weekday, Open: sched.IsOpen}

	slots := GenerateSlots(sched)
	if len(slots) == 0 {
		day.Slots = []SlotStatus{}
		return day, nil
	}
	booked, err := r.store.BookedTimes(ctx, date)
	if err != nil {
		return Day{}, fmt.Errorf("load booked times for %s: %w", model.FormatDate(date), err)
	}
	day.Slots = Resolve(slots, booked)
	return day, nil
}

// NextAvailable scans today and the following days, horizonDays in total,
// and returns the first date with at least one free slot.
func (r *Resolver) NextAvailable(ctx context.Context, horizonDays int) (Day, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	today := r.Today()
	for i := 0; i < horizonDays; i++ {
		day, err := r.ForDate(ctx, today.AddDate(0, 0, i))
		if err != nil {
			return Day{}, err
		}
		if day.HasAvailable() {
			return day, nil
		}
	}
	return Day{}, ErrNoAvailability
}
