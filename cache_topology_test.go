package vgpu

import "testing"

func TestProbeTopologyIsMemoized(t *testing.T) {
	first := ProbeTopology()
	second := ProbeTopology()
	if first.Cache != second.Cache {
		t.Fatalf("topology probe not memoized: %+v vs %+v", first.Cache, second.Cache)
	}
}

func TestProbeTopologyHasAtLeastOneNode(t *testing.T) {
	topo := ProbeTopology()
	if len(topo.Nodes) == 0 {
		t.Fatalf("expected at least one NUMA node (fallback included)")
	}
}

func TestParseCacheSize(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"32K", 32 * 1024, true},
		{"8M", 8 * 1024 * 1024, true},
		{"256", 256, true},
		{"", 0, false},
		{"garbage", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseCacheSize(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("parseCacheSize(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseIDList(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"0-3", []int{0, 1, 2, 3}},
		{"0,2,4", []int{0, 2, 4}},
		{"0-1,4", []int{0, 1, 4}},
		{"", nil},
	}
	for _, tc := range cases {
		got, err := parseIDList(tc.in)
		if err != nil {
			t.Fatalf("parseIDList(%q): %v", tc.in, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("parseIDList(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("parseIDList(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
