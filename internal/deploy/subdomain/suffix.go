package subdomain

import "strconv"

// SuffixSource yields the ordered, bounded list of fallback suffixes tried
// after the bare name collides.
type SuffixSource interface {
	Suffixes() []string
}

// FixedSuffixes is a fixed ordered list of label suffixes.
type FixedSuffixes []string

func (f FixedSuffixes) Suffixes() []string {
	out := make([]string, 0, len(f))
	for _, s := range f {
		if c := clean(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// CounterSuffixes yields "2", "3", ... up to N+1.
type CounterSuffixes int

func (c CounterSuffixes) Suffixes() []string {
	if c <= 0 {
		return nil
	}
	out := make([]string, 0, int(c))
	for i := 0; i < int(c); i++ {
		out = append(out, strconv.Itoa(i+2))
	}
	return out
}
