package models

import "testing"

func TestStopListScanRoundTrip(t *testing.T) {
	original := StopList{
		{Name: "Central Station", Lat: 41.38, Lng: 2.17, Sequence: 0},
		{Name: "University", Lat: 41.39, Lng: 2.16, Sequence: 1},
	}

	value, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned StopList
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(scanned) != 2 {
		t.Fatalf("len = %d, want 2", len(scanned))
	}
	if scanned[1].Name != "University" || scanned[1].Sequence != 1 {
		t.Errorf("scanned[1] = %+v", scanned[1])
	}
}

func TestStopListScanNil(t *testing.T) {
	var stops StopList
	if err := stops.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if stops != nil {
		t.Errorf("stops = %v, want nil", stops)
	}
}

func TestStopListScanUnsupportedType(t *testing.T) {
	var stops StopList
	if err := stops.Scan(42); err == nil {
		t.Error("expected error for unsupported type")
	}
}
