package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		def  int
		want Params
	}{
		{name: "defaults", in: Params{}, def: 10, want: Params{Page: 1, Limit: 10}},
		{name: "custom default", in: Params{Page: 2}, def: 12, want: Params{Page: 2, Limit: 12}},
		{name: "clamps limit", in: Params{Page: 1, Limit: 1000}, def: 10, want: Params{Page: 1, Limit: MaxLimit}},
		{name: "negative page", in: Params{Page: -3, Limit: 5}, def: 10, want: Params{Page: 1, Limit: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(tc.def); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Fatalf("expected zero offset, got %d", got)
	}
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(Params{Page: 2, Limit: 10}, 25)
	if info.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", info.TotalPages)
	}
	if !info.HasNextPage || !info.HasPreviousPage {
		t.Fatalf("page 2 of 3 should have both neighbours: %+v", info)
	}

	last := NewPageInfo(Params{Page: 3, Limit: 10}, 25)
	if last.HasNextPage {
		t.Fatalf("last page must not report a next page")
	}

	empty := NewPageInfo(Params{Page: 1, Limit: 10}, 0)
	if empty.TotalPages != 0 || empty.HasNextPage || empty.HasPreviousPage {
		t.Fatalf("unexpected empty page info %+v", empty)
	}
}
