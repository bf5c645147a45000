package rangle

import (
	"strconv"
	"strings"
)

// Chunk is one client-tracked interval (From, To] of item timestamps.
// Num is the number of items the client believed valid in the interval when
// the chunk was created; HasNum is false for chunks that carry no count yet.
type Chunk struct {
	From   int64
	To     int64
	Open   bool // covers everything after From; only valid as the last chunk
	Num    int
	HasNum bool
}

// String renders the chunk without its count, the form returned to clients
func (c Chunk) String() string {
	if c.Open {
		return strconv.FormatInt(c.From, 10) + "-"
	}
	return strconv.FormatInt(c.From, 10) + "-" + strconv.FormatInt(c.To, 10)
}

// ParseRange parses a single "<from>-<to>[:<num>]" or "<from>-" range string
func ParseRange(s string) (Chunk, error) {
	var c Chunk

	bounds, count, hasCount := strings.Cut(s, ":")
	if hasCount {
		if strings.Contains(count, ":") {
			return c, malformed(s, "more than one ':'")
		}
		n, err := parseBound(count)
		if err != nil {
			return c, malformed(s, "count is not a non-negative integer")
		}
		if n > int64(maxCount) {
			return c, malformed(s, "count out of range")
		}
		c.Num = int(n)
		c.HasNum = true
	}

	fromStr, toStr, ok := strings.Cut(bounds, "-")
	if !ok {
		return c, malformed(s, "missing '-'")
	}

	from, err := parseBound(fromStr)
	if err != nil {
		return c, malformed(s, "from is not a non-negative integer")
	}
	c.From = from

	// "20-" and the legacy "20->" are open-ended
	if toStr == "" || toStr == ">" {
		c.Open = true
		return c, nil
	}

	to, err := parseBound(toStr)
	if err != nil {
		return c, malformed(s, "to is not a non-negative integer")
	}
	if to < from {
		return c, malformed(s, "to is lower than from")
	}
	c.To = to

	return c, nil
}

// ParseRanges parses an ordered list of range strings and checks that the
// chunks start at 0 and are contiguous. An open-ended chunk is only accepted
// in last position.
func ParseRanges(ranges []string) ([]Chunk, error) {
	chunks := make([]Chunk, 0, len(ranges))

	for i, r := range ranges {
		c, err := ParseRange(r)
		if err != nil {
			return nil, err
		}
		if i == 0 && c.From != 0 {
			return nil, malformed(r, "first range must start at 0")
		}
		if c.Open && i != len(ranges)-1 {
			return nil, malformed(r, "open-ended range must be last")
		}
		if i > 0 && chunks[i-1].To != c.From {
			return nil, malformed(r, "not contiguous with previous range "+ranges[i-1])
		}
		chunks = append(chunks, c)
	}

	return chunks, nil
}

// FormatRanges serializes chunks. Counts are forwarded only when withCount is
// set and the chunk has one.
func FormatRanges(chunks []Chunk, withCount bool) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		s := c.String()
		if withCount && c.HasNum && !c.Open {
			s += ":" + strconv.Itoa(c.Num)
		}
		out[i] = s
	}
	return out
}

const maxCount = int(^uint32(0) >> 1)

// parseBound accepts plain decimal digits only: no sign, no whitespace
func parseBound(s string) (int64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(s, 10, 64)
}
