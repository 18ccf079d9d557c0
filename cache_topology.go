package vgpu

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// CacheSizes reports the L1d/L2/L3 sizes used by the blocked GEMM driver
// and autotuner to filter candidate tile sizes.
type CacheSizes struct {
	L1, L2, L3 int
}

// NumaNode is one NUMA node's id and the cpu ids that belong to it.
type NumaNode struct {
	ID      int
	CPUIDs  []int
}

// Topology is the frozen result of probing the host's cache and NUMA
// layout once at process start.
type Topology struct {
	Cache CacheSizes
	Nodes []NumaNode
}

var (
	topologyOnce sync.Once
	topology     Topology
)

// ProbeTopology returns the process-wide cache/NUMA topology, probing the
// host exactly once and caching the result for the remainder of the
// process's life (cache and NUMA layout do not change at runtime).
func ProbeTopology() Topology {
	topologyOnce.Do(func() {
		topology = Topology{
			Cache: probeCacheSizes(),
			Nodes: probeNumaNodes(),
		}
	})
	return topology
}

func probeCacheSizes() CacheSizes {
	sizes := CacheSizes{L1: DefaultL1CacheSize, L2: DefaultL2CacheSize, L3: DefaultL3CacheSize}
	base := "/sys/devices/system/cpu/cpu0/cache"
	if _, err := os.Stat(base); err != nil {
		return sizes
	}
	for idx := 0; idx < 10; idx++ {
		dir := fmt.Sprintf("%s/index%d", base, idx)
		levelRaw, err := os.ReadFile(dir + "/level")
		if err != nil {
			continue
		}
		level, err := strconv.Atoi(strings.TrimSpace(string(levelRaw)))
		if err != nil {
			continue
		}
		typeRaw, err := os.ReadFile(dir + "/type")
		if err != nil {
			continue
		}
		cacheType := strings.TrimSpace(string(typeRaw))
		sizeRaw, err := os.ReadFile(dir + "/size")
		if err != nil {
			continue
		}
		bytes, ok := parseCacheSize(strings.TrimSpace(string(sizeRaw)))
		if !ok {
			continue
		}
		switch {
		case level == 1 && cacheType == "Data":
			sizes.L1 = bytes
		case level == 2:
			sizes.L2 = bytes
		case level == 3:
			sizes.L3 = bytes
		}
	}
	return sizes
}

// parseCacheSize parses sysfs cache size strings like "32K" or "8M".
func parseCacheSize(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	multiplier := 1
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n * multiplier, true
}

func probeNumaNodes() []NumaNode {
	onlineRaw, err := os.ReadFile("/sys/devices/system/node/online")
	if err != nil {
		return []NumaNode{singleNodeFallback()}
	}
	ids, err := parseIDList(strings.TrimSpace(string(onlineRaw)))
	if err != nil || len(ids) == 0 {
		return []NumaNode{singleNodeFallback()}
	}

	nodes := make([]NumaNode, 0, len(ids))
	for _, id := range ids {
		cpuPath := fmt.Sprintf("/sys/devices/system/node/node%d/cpulist", id)
		cpuRaw, err := os.ReadFile(cpuPath)
		if err != nil {
			continue
		}
		cpus, err := parseIDList(strings.TrimSpace(string(cpuRaw)))
		if err != nil {
			continue
		}
		nodes = append(nodes, NumaNode{ID: id, CPUIDs: cpus})
	}
	if len(nodes) == 0 {
		return []NumaNode{singleNodeFallback()}
	}
	return nodes
}

func singleNodeFallback() NumaNode {
	n := numCPU()
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return NumaNode{ID: 0, CPUIDs: ids}
}

// parseIDList parses sysfs range lists such as "0-7" or "0,2,4-6".
func parseIDList(s string) ([]int, error) {
	var ids []int
	if s == "" {
		return ids, nil
	}
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if dash := strings.IndexByte(token, '-'); dash >= 0 {
			start, err := strconv.Atoi(token[:dash])
			if err != nil {
				return nil, err
			}
			end, err := strconv.Atoi(token[dash+1:])
			if err != nil {
				return nil, err
			}
			for i := start; i <= end; i++ {
				ids = append(ids, i)
			}
			continue
		}
		id, err := strconv.Atoi(token)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// numCPU counts online CPUs from /proc/cpuinfo, falling back to 1.
func numCPU() int {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return 1
	}
	defer f.Close()
	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "processor") {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// NodeForCPU returns the NUMA node id that owns the given cpu id, or 0 if
// no node claims it.
func (t Topology) NodeForCPU(cpuID int) int {
	for _, n := range t.Nodes {
		for _, c := range n.CPUIDs {
			if c == cpuID {
				return n.ID
			}
		}
	}
	return 0
}
