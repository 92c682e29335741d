package rbac

import "testing"

func TestIsKnownCapability(t *testing.T) {
	for _, c := range capabilities {
		if !IsKnownCapability(c) {
			t.Fatalf("%s must be known", c)
		}
	}
	if IsKnownCapability("manage_orders") {
		t.Fatal("manage_orders must be unknown")
	}
	if IsKnownCapability("VIEW_COMPANIES") {
		t.Fatal("capability names are case sensitive")
	}
}
