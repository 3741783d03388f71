package node

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func echoDescriptor() Descriptor {
	return Descriptor{
		TypeName:    "Echo",
		Category:    "test",
		InputPorts:  []Port{{Name: "in", Type: "any", Required: true}},
		OutputPorts: []Port{{Name: "out", Type: "any"}},
	}
}

func echoConstructor(id string) (*Node, Processor) {
	n := NewNode("Echo", id)
	n.AddInputPort(Port{Name: "in", Type: "any", Required: true})
	n.AddOutputPort(Port{Name: "out", Type: "any"})
	proc := ProcessorFunc(func(ctx context.Context, n *Node) (Map, error) {
		return Map{"out": Some(n.InputValues["in"])}, nil
	})
	return n, proc
}

func TestRegistryCreateUnknownType(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	_, _, err := r.Create("DoesNotExist", "")
	if !errors.Is(err, ErrUnknownNodeType) {
		t.Fatalf("expected ErrUnknownNodeType, got %v", err)
	}
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	if err := r.Register(echoDescriptor, echoConstructor); err != nil {
		t.Fatalf("register: %v", err)
	}

	n, proc, err := r.Create("Echo", "n1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID != "n1" {
		t.Errorf("expected id n1, got %s", n.ID)
	}

	n.SetInput("in", "hello")
	out, err := proc.Process(context.Background(), n)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out["out"].Get() != "hello" {
		t.Errorf("expected hello, got %v", out["out"].Get())
	}
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	if err := r.Register(echoDescriptor, echoConstructor); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(echoDescriptor, echoConstructor); err != nil {
		t.Fatalf("second register should replace, not error: %v", err)
	}
	if !r.Has("Echo") {
		t.Error("expected Echo to remain registered")
	}
}

func TestRegistryEnumerateSorted(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	_ = r.Register(func() Descriptor { return Descriptor{TypeName: "Zebra"} }, echoConstructor)
	_ = r.Register(func() Descriptor { return Descriptor{TypeName: "Apple"} }, echoConstructor)

	descs := r.Enumerate()
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}
	if descs[0].TypeName != "Apple" || descs[1].TypeName != "Zebra" {
		t.Errorf("expected sorted order Apple, Zebra; got %s, %s", descs[0].TypeName, descs[1].TypeName)
	}
}

func TestRegistryNullTolerant(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	_ = r.Register(func() Descriptor {
		return Descriptor{TypeName: "Merge", NullTolerant: true}
	}, echoConstructor)

	if !r.IsNullTolerant("Merge") {
		t.Error("expected Merge to be null-tolerant")
	}
	if r.IsNullTolerant("Unknown") {
		t.Error("unknown types should not be null-tolerant")
	}
}
