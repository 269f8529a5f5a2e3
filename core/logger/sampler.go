package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler keeps num out of every den events. A zero ratio keeps everything.
// The ratio is packed into one word so Set and Allow never observe a torn pair.
type sampler struct {
	ratio atomic.Uint64
	seen  atomic.Uint64
}

func newSampler(num, den int) *sampler {
	s := &sampler{}
	s.Set(num, den)
	return s
}

func (s *sampler) Set(num, den int) {
	if num <= 0 || den <= 0 || num >= den {
		s.ratio.Store(0)
	} else {
		s.ratio.Store(uint64(num)<<32 | uint64(den))
	}
	s.seen.Store(0)
}

func (s *sampler) Allow() bool {
	ratio := s.ratio.Load()
	if ratio == 0 {
		return true
	}
	num, den := ratio>>32, ratio&0xffffffff
	return (s.seen.Add(1)-1)%den < num
}

// parseRatio reads "n/d" or "d" (meaning 1/d). "all", "off" and "0" keep everything.
func parseRatio(spec string) (num, den int, ok bool) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	switch spec {
	case "":
		return 0, 0, false
	case "all", "off", "0":
		return 0, 0, true
	}
	if n, d, found := strings.Cut(spec, "/"); found {
		num, err1 := strconv.Atoi(strings.TrimSpace(n))
		den, err2 := strconv.Atoi(strings.TrimSpace(d))
		if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
			return 0, 0, false
		}
		return num, den, true
	}
	den, err := strconv.Atoi(spec)
	if err != nil || den < 0 {
		return 0, 0, false
	}
	return 1, den, true
}
