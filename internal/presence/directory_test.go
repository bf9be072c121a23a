package presence

import (
	"context"
	"reflect"
	"testing"
)

type fakeSeats struct {
	holders []string
}

func (f *fakeSeats) ActiveHolders(ctx context.Context) ([]string, error) {
	return f.holders, nil
}

type fakeOnline struct {
	names []string
}

func (f *fakeOnline) OnlineNames() []string { return f.names }

func TestContactsExcludeSelf(t *testing.T) {
	seats := &fakeSeats{holders: []string{"Alice", "Bob", "Carol"}}
	d := New(seats, &fakeOnline{})

	got, err := d.Contacts(context.Background(), "Bob")
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Alice", "Carol"}) {
		t.Fatalf("contacts = %v, want [Alice Carol]", got)
	}

	// Someone without a seat sees every holder.
	got, _ = d.Contacts(context.Background(), "Guest")
	if !reflect.DeepEqual(got, []string{"Alice", "Bob", "Carol"}) {
		t.Fatalf("guest contacts = %v, want all holders", got)
	}
}

func TestReservedOnlineCount(t *testing.T) {
	seats := &fakeSeats{holders: []string{"Alice", "Bob", "Carol"}}
	online := &fakeOnline{names: []string{"Bob", "Carol", "Dave", "Guest"}}
	d := New(seats, online)

	count, err := d.ReservedOnlineCount(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	// Bob and Carol hold seats and are connected; Dave and Guest hold
	// nothing, Alice is offline.
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestDirectoryTracksSourceChanges(t *testing.T) {
	seats := &fakeSeats{holders: []string{"Alice"}}
	online := &fakeOnline{names: []string{"Alice"}}
	d := New(seats, online)

	if n, _ := d.ReservedOnlineCount(context.Background()); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}

	// The directory is a pure view: mutate the sources and the next
	// call reflects them with no cache in between.
	seats.holders = nil
	if n, _ := d.ReservedOnlineCount(context.Background()); n != 0 {
		t.Fatalf("count after release = %d, want 0", n)
	}
	if got, _ := d.Contacts(context.Background(), "Bob"); len(got) != 0 {
		t.Fatalf("contacts after release = %v, want empty", got)
	}
}
