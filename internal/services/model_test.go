package services

import "testing"

func TestValidType(t *testing.T) {
	for _, v := range []string{TypeOffer, TypeRequest} {
		if !ValidType(v) {
			t.Errorf("ValidType(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "sale", "OFFER"} {
		if ValidType(v) {
			t.Errorf("ValidType(%q) = true, want false", v)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, v := range []string{StatusActive, StatusCompleted, StatusCancelled} {
		if !ValidStatus(v) {
			t.Errorf("ValidStatus(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "archived", "Active"} {
		if ValidStatus(v) {
			t.Errorf("ValidStatus(%q) = true, want false", v)
		}
	}
}
