package template

import "fmt"

// Structure is the ordered node list of a template. Its methods return new
// slices and never modify the receiver.
type Structure []Node

// Validate checks every node and enforces unique names.
func (s Structure) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, node := range s {
		if err := node.Validate(); err != nil {
			return err
		}
		if _, ok := seen[node.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, node.Name)
		}
		seen[node.Name] = struct{}{}
	}
	return nil
}

// Index returns the position of the node called name, or -1.
func (s Structure) Index(name string) int {
	for i, node := range s {
		if node.Name == name {
			return i
		}
	}
	return -1
}

// Append adds node at the end.
func (s Structure) Append(node Node) (Structure, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}
	if s.Index(node.Name) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, node.Name)
	}
	out := s.clone()
	return append(out, node.clone()), nil
}

// Move relocates the node at from to position to by successive adjacent swaps,
// so the result is always a permutation of s.
func (s Structure) Move(from, to int) (Structure, error) {
	if err := s.checkIndex(from); err != nil {
		return nil, err
	}
	if err := s.checkIndex(to); err != nil {
		return nil, err
	}
	out := s.clone()
	for from < to {
		out[from], out[from+1] = out[from+1], out[from]
		from++
	}
	for from > to {
		out[from], out[from-1] = out[from-1], out[from]
		from--
	}
	return out, nil
}

// Remove drops the node at index.
func (s Structure) Remove(index int) (Structure, error) {
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}
	out := make(Structure, 0, len(s)-1)
	for i, node := range s {
		if i == index {
			continue
		}
		out = append(out, node.clone())
	}
	return out, nil
}

func (s Structure) checkIndex(index int) error {
	if index < 0 || index >= len(s) {
		return fmt.Errorf("%w: index %d outside [0,%d)", ErrNodeNotFound, index, len(s))
	}
	return nil
}

func (s Structure) clone() Structure {
	if s == nil {
		return nil
	}
	out := make(Structure, len(s))
	for i, node := range s {
		out[i] = node.clone()
	}
	return out
}
