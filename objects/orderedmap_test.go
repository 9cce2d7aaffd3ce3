package objects

import (
	"reflect"
	"testing"
)

func TestNamedMapCaseInsensitiveLookup(t *testing.T) {
	m := NewNamedMap[int]()
	m.Set("DeviceID", 1)
	m.Set("Caption", 2)

	for _, name := range []string{"DeviceID", "deviceid", "DEVICEID", "dEvIcEiD"} {
		v, ok := m.Get(name)
		if !ok || v != 1 {
			t.Errorf("Get(%q) = %d, %v; want 1, true", name, v, ok)
		}
	}

	if _, ok := m.Get("missing"); ok {
		t.Error("Get of absent name should fail")
	}
}

func TestNamedMapOrderPreserved(t *testing.T) {
	m := NewNamedMap[string]()
	m.Set("Zeta", "z")
	m.Set("alpha", "a")
	m.Set("Mid", "m")

	// Replacing via a different case keeps the position, adopts the
	// spelling.
	m.Set("ALPHA", "a2")

	wantNames := []string{"Zeta", "ALPHA", "Mid"}
	if got := m.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("Names() = %v, want %v", got, wantNames)
	}
	wantValues := []string{"z", "a2", "m"}
	if got := m.Values(); !reflect.DeepEqual(got, wantValues) {
		t.Errorf("Values() = %v, want %v", got, wantValues)
	}
}

func TestNamedMapDelete(t *testing.T) {
	m := NewNamedMap[int]()
	m.Set("A", 1)
	m.Set("B", 2)
	m.Set("C", 3)

	if !m.Delete("b") {
		t.Fatal("Delete(b) should report removal")
	}
	if m.Delete("b") {
		t.Error("second Delete should report nothing removed")
	}
	if got := m.Names(); !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Errorf("Names() after delete = %v", got)
	}
	// Index of later entries must stay consistent after the shift.
	if v, ok := m.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) after delete = %d, %v", v, ok)
	}
}

func TestNamedMapEach(t *testing.T) {
	m := NewNamedMap[int]()
	m.Set("one", 1)
	m.Set("two", 2)
	m.Set("three", 3)

	var seen []int
	m.Each(func(name string, v int) bool {
		seen = append(seen, v)
		return v != 2 // stop early
	})
	if !reflect.DeepEqual(seen, []int{1, 2}) {
		t.Errorf("Each visited %v, want [1 2]", seen)
	}
}

func TestNamedMapNilReceiver(t *testing.T) {
	var m *NamedMap[int]
	if m.Len() != 0 {
		t.Error("nil map should have length 0")
	}
	if _, ok := m.Get("x"); ok {
		t.Error("nil map Get should fail")
	}
	if m.Names() != nil || m.Values() != nil {
		t.Error("nil map Names/Values should be nil")
	}
}
