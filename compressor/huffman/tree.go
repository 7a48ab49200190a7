package huffman

import (
	"container/heap"

	"github.com/pkg/errors"
)

// Node is either a leaf carrying one word value, or an internal node that
// owns exactly two children. Zero and One are both nil for a leaf.
type Node struct {
	Symbol    uint32
	Weight    uint64
	Zero, One *Node
	id        int
}

func (n *Node) IsLeaf() bool {
	return n.Zero == nil && n.One == nil
}

type huffmanHeap []*Node

func (hub *huffmanHeap) Push(item any) {
	*hub = append(*hub, item.(*Node))
}

func (hub *huffmanHeap) Pop() any {
	popped := (*hub)[len(*hub)-1]
	(*hub) = (*hub)[:len(*hub)-1]
	return popped
}

func (hub huffmanHeap) Len() int {
	return len(hub)
}

// Less orders by weight, then by creation id. Leaves are numbered in
// ascending word value before any merge, so equal weights resolve to the
// lowest word value first and to older merged nodes before newer ones.
func (hub huffmanHeap) Less(i, j int) bool {
	if hub[i].Weight != hub[j].Weight {
		return hub[i].Weight < hub[j].Weight
	}
	return hub[i].id < hub[j].id
}

func (hub huffmanHeap) Swap(i, j int) {
	hub[i], hub[j] = hub[j], hub[i]
}

// BuildTree merges the two lightest nodes until one remains. The first node
// popped becomes the zero branch. A table with a single distinct word yields
// a lone leaf; an empty table yields ErrDegenerateAlphabet.
func BuildTree(ft *FrequencyTable) (*Node, error) {
	var treehub huffmanHeap
	monoId := 0
	for symbol, count := range ft.Counts {
		if count == 0 {
			continue
		}
		treehub = append(treehub, &Node{
			Symbol: uint32(symbol),
			Weight: count,
			id:     monoId,
		})
		monoId++
	}
	if len(treehub) == 0 {
		return nil, errors.Wrap(ErrDegenerateAlphabet, "no words to build a tree from")
	}
	heap.Init(&treehub)
	for treehub.Len() > 1 {
		x := heap.Pop(&treehub).(*Node)
		y := heap.Pop(&treehub).(*Node)
		heap.Push(&treehub, &Node{
			Weight: x.Weight + y.Weight,
			Zero:   x,
			One:    y,
			id:     monoId,
		})
		monoId++
	}
	return heap.Pop(&treehub).(*Node), nil
}
