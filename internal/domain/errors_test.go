package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "direct", err: ErrPollTimeout, want: ErrPollTimeout},
		{name: "wrapped", err: fmt.Errorf("relay: %w", ErrMissingImages), want: ErrMissingImages},
		{name: "unknown", err: errors.New("boom"), want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf() = %v, want %v", got, tc.want)
			}
		})
	}
}
