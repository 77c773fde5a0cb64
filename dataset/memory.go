package dataset

import "context"

// MemoryProvider serves splits that are already in memory.
type MemoryProvider struct {
	splits *Splits
}

// NewMemoryProvider wraps splits. When splits.Classes is empty the sorted
// unique labels are used.
func NewMemoryProvider(splits *Splits) *MemoryProvider {
	return &MemoryProvider{splits: splits}
}

// Load returns a copy of the wrapped splits.
func (m *MemoryProvider) Load(ctx context.Context) (*Splits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := &Splits{
		Train:      cloneSplit(m.splits.Train),
		Validation: cloneSplit(m.splits.Validation),
		Test:       cloneSplit(m.splits.Test),
		Classes:    append([]string(nil), m.splits.Classes...),
	}
	if len(out.Classes) == 0 {
		out.Classes = UniqueSorted(out.Train, out.Validation, out.Test)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneSplit(s Split) Split {
	return Split{
		Texts:  append([]string(nil), s.Texts...),
		Labels: append([]string(nil), s.Labels...),
	}
}
