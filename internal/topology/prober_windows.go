//go:build windows

package topology

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"unsafe"

	"golang.org/x/sys/windows"
)

// NewProber returns the kernel32-backed prober for Windows.
func NewProber() Prober {
	return &winProber{}
}

// winProber walks the buffer returned by
// GetLogicalProcessorInformationEx(RelationProcessorCore). Each record
// describes one physical core with its efficiency class and the group
// affinity masks of its logical processors.
type winProber struct{}

const relationProcessorCore = 0

var (
	kernel32                             = windows.NewLazySystemDLL("kernel32.dll")
	procGetLogicalProcessorInformationEx = kernel32.NewProc("GetLogicalProcessorInformationEx")
)

func (p *winProber) Probe() ([]LogicalProcessor, error) {
	buf, err := queryProcessorInformation()
	if err != nil {
		return nil, err
	}

	type coreRecord struct {
		efficiencyClass int
		cpus            []int
	}

	var cores []coreRecord
	maxClass := 0
	for offset := 0; offset+8 <= len(buf); {
		relationship := binary.LittleEndian.Uint32(buf[offset:])
		size := int(binary.LittleEndian.Uint32(buf[offset+4:]))
		if size <= 0 || offset+size > len(buf) {
			return nil, fmt.Errorf("malformed processor information record at offset %d", offset)
		}

		if relationship == relationProcessorCore {
			rec, err := parseProcessorRelationship(buf[offset+8 : offset+size])
			if err != nil {
				return nil, err
			}
			cores = append(cores, coreRecord{efficiencyClass: rec.efficiencyClass, cpus: rec.cpus})
			if rec.efficiencyClass > maxClass {
				maxClass = rec.efficiencyClass
			}
		}
		offset += size
	}
	if len(cores) == 0 {
		return nil, fmt.Errorf("no processor core relationships reported")
	}

	// Windows ranks efficiency classes the other way around (higher
	// class = faster core). Flip into the model convention where class
	// 0 is the fastest tier.
	var procs []LogicalProcessor
	for coreID, core := range cores {
		for _, cpu := range core.cpus {
			procs = append(procs, LogicalProcessor{
				OSID:            cpu,
				PhysicalID:      coreID,
				EfficiencyClass: maxClass - core.efficiencyClass,
			})
		}
	}
	return procs, nil
}

// queryProcessorInformation performs the two-call buffer dance: first
// ask for the required size, then fetch the data.
func queryProcessorInformation() ([]byte, error) {
	var length uint32
	r1, _, err := procGetLogicalProcessorInformationEx.Call(
		uintptr(relationProcessorCore),
		0,
		uintptr(unsafe.Pointer(&length)),
	)
	if r1 != 0 || err != windows.ERROR_INSUFFICIENT_BUFFER {
		return nil, fmt.Errorf("GetLogicalProcessorInformationEx size query: %w", err)
	}
	if length == 0 {
		return nil, fmt.Errorf("GetLogicalProcessorInformationEx reported empty buffer")
	}

	buf := make([]byte, length)
	r1, _, err = procGetLogicalProcessorInformationEx.Call(
		uintptr(relationProcessorCore),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&length)),
	)
	if r1 == 0 {
		return nil, fmt.Errorf("GetLogicalProcessorInformationEx: %w", err)
	}
	return buf[:length], nil
}

type processorRelationship struct {
	efficiencyClass int
	cpus            []int
}

// parseProcessorRelationship decodes PROCESSOR_RELATIONSHIP from the
// bytes that follow the record header: Flags (1), EfficiencyClass (1),
// Reserved (20), GroupCount (2), then GroupCount GROUP_AFFINITY entries
// of 16 bytes each (KAFFINITY mask, group number, reserved).
func parseProcessorRelationship(b []byte) (processorRelationship, error) {
	const (
		headerSize        = 24
		groupAffinitySize = 16
	)
	if len(b) < headerSize {
		return processorRelationship{}, fmt.Errorf("processor relationship truncated: %d bytes", len(b))
	}

	rec := processorRelationship{efficiencyClass: int(b[1])}
	groupCount := int(binary.LittleEndian.Uint16(b[22:]))
	if groupCount < 1 {
		groupCount = 1
	}

	for g := 0; g < groupCount; g++ {
		base := headerSize + g*groupAffinitySize
		if base+groupAffinitySize > len(b) {
			break
		}
		mask := binary.LittleEndian.Uint64(b[base:])
		group := int(binary.LittleEndian.Uint16(b[base+8:]))
		for mask != 0 {
			bit := bits.TrailingZeros64(mask)
			rec.cpus = append(rec.cpus, group*64+bit)
			mask &^= 1 << uint(bit)
		}
	}
	return rec, nil
}
