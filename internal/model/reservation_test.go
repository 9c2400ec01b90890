package model

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCheckedIn, false},
		{StatusPending, StatusNoShow, false},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusCheckedIn, true},
		{StatusApproved, StatusNoShow, true},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		// Terminal states never move again.
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusPending, false},
		{StatusCheckedIn, StatusNoShow, false},
		{StatusNoShow, StatusCheckedIn, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStatusClassification(t *testing.T) {
	active := []Status{StatusPending, StatusApproved, StatusCheckedIn}
	for _, s := range active {
		if !s.Active() {
			t.Errorf("%s should count against slot capacity", s)
		}
	}
	inactive := []Status{StatusRejected, StatusCancelled, StatusNoShow}
	for _, s := range inactive {
		if s.Active() {
			t.Errorf("%s should not count against slot capacity", s)
		}
	}
	terminal := []Status{StatusRejected, StatusCancelled, StatusCheckedIn, StatusNoShow}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if StatusPending.Terminal() || StatusApproved.Terminal() {
		t.Error("pending and approved must not be terminal")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCheckedIn, StatusNoShow} {
		if !ValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	if ValidStatus("confirmed") {
		t.Error("unknown status accepted")
	}
}
