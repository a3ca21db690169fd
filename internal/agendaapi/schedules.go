package agendaapi

import (
	"context"

	"vetagenda/internal/model"
)

// LocationStore resolves work locations.
type LocationStore interface {
	GetLocation(ctx context.Context, id int64) (*model.WorkLocation, error)
}

// RemoteSchedules serves locations from the local store and their weekly
// schedules from the booking backend, through the client's cache.
type RemoteSchedules struct {
	store  LocationStore
	client *Client
}

func NewRemoteSchedules(store LocationStore, client *Client) *RemoteSchedules {
	return &RemoteSchedules{store: store, client: client}
}

func (r *RemoteSchedules) GetLocation(ctx context.Context, id int64) (*model.WorkLocation, error) {
	return r.store.GetLocation(ctx, id)
}

// DaySchedules fetches the published schedule of locationID. A payload that
// does not decode is an error, never an empty schedule.
func (r *RemoteSchedules) DaySchedules(ctx context.Context, locationID int64) ([]model.DaySchedule, error) {
	return r.client.GetLocationSchedule(ctx, locationID)
}

// Invalidate drops the cached schedules of the given locations.
func (r *RemoteSchedules) Invalidate(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		r.client.InvalidateSchedule(ctx, id)
	}
}
