package model

import "testing"

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Number: 1, Size: DefaultPageSize}},
		{Page{Number: 3, Size: 10}, Page{Number: 3, Size: 10}},
		{Page{Number: -2, Size: 5000}, Page{Number: 1, Size: MaxPageSize}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPageOffset(t *testing.T) {
	if got := (Page{Number: 1, Size: 20}).Offset(); got != 0 {
		t.Errorf("page 1 offset = %d, want 0", got)
	}
	if got := (Page{Number: 3, Size: 20}).Offset(); got != 40 {
		t.Errorf("page 3 offset = %d, want 40", got)
	}
	if got := (Page{Number: 0, Size: 20}).Offset(); got != 0 {
		t.Errorf("page 0 offset = %d, want 0", got)
	}
}

func TestFailedIsEmpty(t *testing.T) {
	resp := Failed[[]CheckoutRow]()
	if resp.Success {
		t.Error("expected Success=false")
	}
	if resp.Item != nil {
		t.Errorf("expected nil item, got %v", resp.Item)
	}
	if resp.Page != nil {
		t.Error("expected no page info")
	}
}
