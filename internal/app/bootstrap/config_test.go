package bootstrap

import (
	"reflect"
	"testing"
)

func TestSplitOrigins(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://app.example.com", []string{"https://app.example.com"}},
		{"multiple with spaces", " https://a.example , https://b.example ", []string{"https://a.example", "https://b.example"}},
		{"stray commas", ",https://a.example,,", []string{"https://a.example"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := splitOrigins(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("splitOrigins(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
