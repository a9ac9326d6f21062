package domain

import (
	"fmt"
	"math"
)

// Window is an averaging window in days offered to dashboard users.
type Window int

const (
	Window1Day  Window = 1
	Window3Days Window = 3
	Window5Days Window = 5
	Window7Days Window = 7
)

var windows = []Window{Window1Day, Window3Days, Window5Days, Window7Days}

// Windows returns the selectable windows in ascending order.
func Windows() []Window {
	out := make([]Window, len(windows))
	copy(out, windows)
	return out
}

// ParseWindow maps a day count onto one of the selectable windows.
func ParseWindow(days int) (Window, error) {
	for _, w := range windows {
		if int(w) == days {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unsupported averaging window %d days", days)
}

// Days returns the window length.
func (w Window) Days() int { return int(w) }

func (w Window) String() string {
	if w == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", int(w))
}

// RollingMean computes the trailing simple moving average of values over
// window points. The first window-1 results are NaN, as is any result whose
// window holds a NaN input. A window of 1 returns the input unchanged.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("rolling window must be positive, got %d", window)
	}

	out := make([]float64, len(values))
	var sum float64
	missing := 0
	for i, v := range values {
		if math.IsNaN(v) {
			missing++
		} else {
			sum += v
		}
		if i >= window {
			old := values[i-window]
			if math.IsNaN(old) {
				missing--
			} else {
				sum -= old
			}
		}

		if i < window-1 || missing > 0 {
			out[i] = math.NaN()
			continue
		}
		if window == 1 {
			out[i] = v
			continue
		}
		out[i] = sum / float64(window)
	}
	return out, nil
}
