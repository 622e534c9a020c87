package types

import "testing"

func TestImagesValueScanRoundTrip(t *testing.T) {
	in := Images{{URL: "https://cdn/a.jpg", PublicID: "a"}, {URL: "https://cdn/b.jpg", PublicID: "b"}}
	raw, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out Images
	if err := out.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 2 || out[1].PublicID != "b" {
		t.Fatalf("unexpected images %+v", out)
	}
}

func TestImagesWithout(t *testing.T) {
	in := Images{{PublicID: "a"}, {PublicID: "b"}, {PublicID: "c"}}
	kept, removed := in.Without([]string{"b", "z"})
	if len(kept) != 2 || kept[0].PublicID != "a" || kept[1].PublicID != "c" {
		t.Fatalf("unexpected kept %+v", kept)
	}
	if len(removed) != 1 || removed[0].PublicID != "b" {
		t.Fatalf("unexpected removed %+v", removed)
	}
}

func TestShippingAddressNormalizeAndLines(t *testing.T) {
	line2 := "  "
	state := "OR"
	addr := ShippingAddress{
		FullName:   " Ada Bloom ",
		Phone:      "555-0100",
		Line1:      "12 Petal Way",
		Line2:      &line2,
		City:       "Portland",
		State:      &state,
		PostalCode: "97201",
	}.Normalize()

	if addr.Line2 != nil {
		t.Fatalf("expected blank line2 to be dropped")
	}
	if addr.Country != "US" {
		t.Fatalf("expected default country, got %q", addr.Country)
	}
	lines := addr.Lines()
	if lines[0] != "Ada Bloom" || lines[2] != "Portland, OR 97201" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestShippingAddressValueRequiresLine1(t *testing.T) {
	if _, err := (ShippingAddress{City: "Portland"}).Value(); err == nil {
		t.Fatal("expected missing line1 to fail")
	}
}
