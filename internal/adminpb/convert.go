package adminpb

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// PartitionsToProto converts partition ids to a ListValue of numbers.
func PartitionsToProto(partitions []int) *structpb.ListValue {
	pb := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(partitions))}
	for _, p := range partitions {
		pb.Values = append(pb.Values, structpb.NewNumberValue(float64(p)))
	}
	return pb
}

// ProtoToPartitions converts a ListValue of numbers back to partition ids.
func ProtoToPartitions(pb *structpb.ListValue) ([]int, error) {
	if pb == nil {
		return nil, nil
	}
	partitions := make([]int, 0, len(pb.Values))
	for i, v := range pb.Values {
		p, err := integral(v)
		if err != nil {
			return nil, fmt.Errorf("partition list entry %d: %w", i, err)
		}
		partitions = append(partitions, p)
	}
	return partitions, nil
}

// PartitionStatusToProto converts a partition -> available map to a Struct
// keyed by the decimal partition id.
func PartitionStatusToProto(status map[int]bool) *structpb.Struct {
	pb := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(status))}
	for p, ok := range status {
		pb.Fields[strconv.Itoa(p)] = structpb.NewBoolValue(ok)
	}
	return pb
}

// ProtoToPartitionStatus is the inverse of PartitionStatusToProto.
func ProtoToPartitionStatus(pb *structpb.Struct) (map[int]bool, error) {
	status := make(map[int]bool, len(pb.GetFields()))
	for key, v := range pb.GetFields() {
		p, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("partition status key %q: %w", key, err)
		}
		ok, err := boolean(v)
		if err != nil {
			return nil, fmt.Errorf("partition status %d: %w", p, err)
		}
		status[p] = ok
	}
	return status, nil
}

// ReachabilityToProto converts a storage connection -> reachable map to a Struct.
func ReachabilityToProto(reachable map[string]bool) *structpb.Struct {
	pb := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(reachable))}
	for conn, ok := range reachable {
		pb.Fields[conn] = structpb.NewBoolValue(ok)
	}
	return pb
}

// ProtoToReachability is the inverse of ReachabilityToProto.
func ProtoToReachability(pb *structpb.Struct) (map[string]bool, error) {
	reachable := make(map[string]bool, len(pb.GetFields()))
	for conn, v := range pb.GetFields() {
		ok, err := boolean(v)
		if err != nil {
			return nil, fmt.Errorf("reachability of %s: %w", conn, err)
		}
		reachable[conn] = ok
	}
	return reachable, nil
}

func integral(v *structpb.Value) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v.GetKind())
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("integer %v out of range", f)
	}
	return int(f), nil
}

func boolean(v *structpb.Value) (bool, error) {
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v.GetKind())
	}
	return b.BoolValue, nil
}
