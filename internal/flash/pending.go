package flash

import (
	"errors"
	"fmt"
	"strings"
)

// Pending is the ordered set of labels still waiting for firmware.
type Pending struct {
	labels []string
}

// NewPending validates labels: at least one, none empty, no duplicates.
func NewPending(labels []string) (*Pending, error) {
	if len(labels) == 0 {
		return nil, errors.New("at least one target label is required")
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			return nil, errors.New("target labels must not be empty")
		}
		if seen[label] {
			return nil, fmt.Errorf("duplicate target label %q", label)
		}
		seen[label] = true
	}

	return &Pending{labels: append([]string(nil), labels...)}, nil
}

// Labels returns a copy of the remaining labels in their original order.
func (p *Pending) Labels() []string {
	return append([]string(nil), p.labels...)
}

func (p *Pending) Contains(label string) bool {
	for _, l := range p.labels {
		if l == label {
			return true
		}
	}
	return false
}

// Retire removes label and reports whether it was pending.
func (p *Pending) Retire(label string) bool {
	for i, l := range p.labels {
		if l == label {
			p.labels = append(p.labels[:i], p.labels[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Pending) Len() int { return len(p.labels) }

func (p *Pending) Empty() bool { return len(p.labels) == 0 }
