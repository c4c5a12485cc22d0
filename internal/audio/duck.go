package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

type fadeTarget struct {
	id   int
	from int
	to   int
}

// Ducker lowers every other PulseAudio sink input while the guide speaks
// and restores them afterwards. Streams whose application.name is listed in
// selfNames are left alone.
type Ducker struct {
	mu          sync.Mutex
	active      bool
	selfNames   []string
	originalVol map[int]int // sink input id -> volume % before ducking
	minVolume   int
	factor      float64
	fade        time.Duration
}

func NewDucker(selfNames []string, minVolume int, factor float64, fade time.Duration) *Ducker {
	return &Ducker{
		selfNames:   append([]string(nil), selfNames...),
		originalVol: make(map[int]int),
		minVolume:   clampVolume(minVolume),
		factor:      factor,
		fade:        fade,
	}
}

// Duck fades other streams to volume*factor, never below minVolume.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := listStreams(ctx)
	if err != nil {
		return err
	}

	d.originalVol = make(map[int]int)

	var targets []fadeTarget
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}

		to := int(math.Round(math.Max(float64(s.Volume)*d.factor, float64(d.minVolume))))
		d.originalVol[s.ID] = s.Volume
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: clampVolume(to)})
	}

	if err := fadeInputs(ctx, targets, d.fade); err != nil {
		return err
	}

	d.active = true
	return nil
}

// Restore fades ducked streams back. Streams that appeared after Duck are
// not touched.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := listStreams(ctx)
	if err != nil {
		return err
	}

	var targets []fadeTarget
	for _, s := range streams {
		orig, ok := d.originalVol[s.ID]
		if !ok || d.isSelf(s) {
			continue
		}
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: orig})
	}

	if err := fadeInputs(ctx, targets, d.fade); err != nil {
		return err
	}

	d.originalVol = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelf(s streamInfo) bool {
	for _, name := range d.selfNames {
		if s.AppName == name {
			return true
		}
	}
	return false
}

func fadeInputs(ctx context.Context, targets []fadeTarget, duration time.Duration) error {
	if len(targets) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := int(duration / minStep)
	if steps < 1 {
		steps = 1
	}
	stepDuration := duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, t := range targets {
			v := int(math.Round(float64(t.from) + float64(t.to-t.from)*frac))
			if err := setSinkInputVolume(ctx, t.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		if i < steps {
			time.Sleep(stepDuration)
		}
	}

	return nil
}

func listStreams(ctx context.Context) ([]streamInfo, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

// parseSinkInputs reads the id, first volume percentage and
// application.name of each "Sink Input #N" block.
func parseSinkInputs(text string) []streamInfo {
	blocks := strings.Split(text, "Sink Input #")
	if len(blocks) <= 1 {
		return nil
	}

	var res []streamInfo
	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		s := streamInfo{ID: id, Volume: -1}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume < 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) == 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}
			}

			if rest, ok := strings.CutPrefix(line, "application.name ="); ok && s.AppName == "" {
				s.AppName = strings.Trim(strings.TrimSpace(rest), `"`)
			}
		}

		if s.Volume < 0 {
			continue
		}
		res = append(res, s)
	}

	return res
}

func setSinkInputVolume(ctx context.Context, id int, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run()
}

func clampVolume(v int) int {
	return max(0, min(v, maxVolume))
}
