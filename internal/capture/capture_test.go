package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/logging"
	"github.com/mj1618/wingman/internal/model"
)

func intp(v int) *int { return &v }

func TestRegionFromCrop(t *testing.T) {
	win := image.Rect(100, 200, 500, 1000) // 400x800

	tests := []struct {
		name      string
		crop      *model.Crop
		forceFull bool
		want      image.Rectangle
	}{
		{"nil crop is full window", nil, false, win},
		{"force full", &model.CropChat, true, win},
		{"full crop", &model.CropFull, false, win},
		{"half", &model.Crop{Left: 0.5, Top: 0.5, Right: 1, Bottom: 1}, false, image.Rect(300, 600, 500, 1000)},
		{"truncates", &model.Crop{Left: 0.333, Top: 0.1, Right: 0.667, Bottom: 0.9}, false, image.Rect(233, 280, 366, 920)},
		{"tiny crop is still one pixel", &model.Crop{Left: 0.5, Top: 0.5, Right: 0.5001, Bottom: 0.5001}, false, image.Rect(300, 600, 301, 601)},
		{"tiny crop at right edge", &model.Crop{Left: 0.9999, Top: 0.9999, Right: 1.0, Bottom: 1.0}, false, image.Rect(499, 999, 500, 1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionFromCrop(win, tt.crop, tt.forceFull)
			if got != tt.want {
				t.Errorf("RegionFromCrop() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegionFromCrop_AlwaysInsideWindow(t *testing.T) {
	win := image.Rect(-1920, 0, -1500, 700)
	fracs := []float64{0, 0.01, 0.25, 0.5, 0.75, 0.99, 1}
	for _, l := range fracs {
		for _, r := range fracs {
			if l >= r {
				continue
			}
			for _, tp := range fracs {
				for _, b := range fracs {
					if tp >= b {
						continue
					}
					crop := &model.Crop{Left: l, Top: tp, Right: r, Bottom: b}
					got := RegionFromCrop(win, crop, false)
					if got.Empty() || !got.In(win) {
						t.Fatalf("crop %+v gave %v, want non-empty inside %v", crop, got, win)
					}
				}
			}
		}
	}
}

func TestClampToMonitor(t *testing.T) {
	mon := image.Rect(0, 0, 1920, 1080)
	if got := ClampToMonitor(image.Rect(1800, 1000, 2000, 1200), mon); got != image.Rect(1800, 1000, 1920, 1080) {
		t.Errorf("partial overlap = %v", got)
	}
	off := image.Rect(3000, 0, 3100, 100)
	if got := ClampToMonitor(off, mon); got != off {
		t.Errorf("disjoint region should be unchanged, got %v", got)
	}
}

func TestToRelative(t *testing.T) {
	mon := image.Rect(1920, 0, 3840, 1080)
	if got := ToRelative(image.Rect(2000, 10, 2100, 110), mon); got != image.Rect(80, 10, 180, 110) {
		t.Errorf("ToRelative = %v", got)
	}
	if got := ToRelative(image.Rect(1900, 10, 2000, 20), mon); got.Min.X != 0 {
		t.Errorf("negative x should clamp to 0, got %v", got)
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name     string
		override *int
		guess    int
		n        int
		tryAll   bool
		want     []Pair
	}{
		{
			name:  "single monitor",
			guess: 0, n: 1,
			want: []Pair{{0, 0}},
		},
		{
			name:  "guess first then parallels",
			guess: 1, n: 3,
			want: []Pair{{1, 1}, {0, 0}, {2, 2}},
		},
		{
			name:     "override with tryAll",
			override: intp(1), guess: 0, n: 2, tryAll: true,
			want: []Pair{{1, 1}, {1, 0}, {0, 0}, {0, 1}},
		},
		{
			name:     "out of range override ignored",
			override: intp(5), guess: 0, n: 2,
			want: []Pair{{0, 0}, {1, 1}},
		},
		{
			name:  "zero monitors treated as one",
			guess: 3, n: 0,
			want: []Pair{{0, 0}},
		},
		{
			name:  "tryAll brute force",
			guess: 0, n: 2, tryAll: true,
			want: []Pair{{0, 0}, {1, 1}, {0, 1}, {1, 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.override, tt.guess, tt.n, tt.tryAll)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates() = %v, want %v", got, tt.want)
			}
			again := Candidates(tt.override, tt.guess, tt.n, tt.tryAll)
			if !reflect.DeepEqual(got, again) {
				t.Error("Candidates() is not deterministic")
			}
		})
	}
}

func solid(c color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestIsBlack(t *testing.T) {
	if !IsBlack(solid(color.RGBA{3, 3, 3, 255}, 4, 4), 0) {
		t.Error("near-black should be black")
	}
	if IsBlack(solid(color.RGBA{200, 200, 200, 255}, 4, 4), 0) {
		t.Error("grey should not be black")
	}
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range gray.Pix {
		gray.Pix[i] = 10
	}
	if IsBlack(gray, 6) {
		t.Error("gray 10 should not be black at threshold 6")
	}
	if !IsBlack(image.NewRGBA(image.Rectangle{}), 6) {
		t.Error("empty image should count as black")
	}
}

type fakeDisplays struct {
	monitors []model.Monitor
	guess    int
}

func (f *fakeDisplays) Monitors() ([]model.Monitor, error) { return f.monitors, nil }
func (f *fakeDisplays) MonitorFor(h uintptr) (int, error)  { return f.guess, nil }

type grabCall struct {
	output int
	rect   image.Rectangle
}

type fakeOutput struct {
	calls  []grabCall
	frames map[int]image.Image
}

func (f *fakeOutput) GrabOutput(output int, rect image.Rectangle) (image.Image, error) {
	f.calls = append(f.calls, grabCall{output, rect})
	if img, ok := f.frames[output]; ok {
		return img, nil
	}
	return nil, errors.New("output unavailable")
}

type fakeScreen struct {
	img image.Image
	err error
}

func (f *fakeScreen) GrabScreen(rect image.Rectangle) (image.Image, error) { return f.img, f.err }

func twoMonitors() *fakeDisplays {
	return &fakeDisplays{monitors: []model.Monitor{
		{Index: 0, Bounds: [4]int{0, 0, 1920, 1080}},
		{Index: 1, Bounds: [4]int{1920, 0, 1920, 1080}},
	}, guess: 1}
}

func TestOutputStrategy_RejectsBlackUntilUsable(t *testing.T) {
	out := &fakeOutput{frames: map[int]image.Image{
		1: solid(color.RGBA{0, 0, 0, 255}, 2, 2),
		0: solid(color.RGBA{120, 120, 120, 255}, 2, 2),
	}}
	var worked = -1
	s := NewOutputStrategy(out, twoMonitors(), OutputOptions{TryAll: true, OnSuccess: func(o int) { worked = o }}, logging.Discard())

	req := Request{Window: model.Window{Handle: 1}, Region: image.Rect(2000, 100, 2100, 200)}
	img, err := s.Capture(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if IsBlack(img, 0) {
		t.Fatal("returned a black frame")
	}
	if worked != 0 {
		t.Errorf("OnSuccess output = %d, want 0", worked)
	}
	// guess (1,1) black, then parallel (0,0) relative to monitor 0
	if len(out.calls) != 2 {
		t.Fatalf("expected 2 grabs, got %d", len(out.calls))
	}
	if out.calls[0].rect != image.Rect(80, 100, 180, 200) {
		t.Errorf("first grab rect = %v", out.calls[0].rect)
	}
	if out.calls[1].rect != image.Rect(2000, 100, 2100, 200) {
		t.Errorf("second grab rect = %v", out.calls[1].rect)
	}
}

func TestOutputStrategy_AllBlack(t *testing.T) {
	black := solid(color.RGBA{1, 1, 1, 255}, 2, 2)
	out := &fakeOutput{frames: map[int]image.Image{0: black, 1: black}}
	s := NewOutputStrategy(out, twoMonitors(), OutputOptions{TryAll: true}, logging.Discard())

	_, err := s.Capture(context.Background(), Request{Region: image.Rect(0, 0, 10, 10)})
	if err == nil {
		t.Fatal("expected failure when every frame is black")
	}
	if len(out.calls) != 4 {
		t.Errorf("expected every candidate tried, got %d grabs", len(out.calls))
	}
}

func TestChain_FallsThroughToScreen(t *testing.T) {
	out := &fakeOutput{}
	screen := &fakeScreen{img: solid(color.RGBA{90, 90, 90, 255}, 2, 2)}
	chain := NewChain(logging.Discard(),
		NewOutputStrategy(out, twoMonitors(), OutputOptions{}, logging.Discard()),
		NewScreenStrategy(screen),
	)
	res, err := chain.Capture(context.Background(), Request{Region: image.Rect(0, 0, 10, 10)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "screen" {
		t.Errorf("strategy = %q, want screen", res.Strategy)
	}
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain(logging.Discard(),
		NewOutputStrategy(nil, nil, OutputOptions{}, logging.Discard()),
		NewScreenStrategy(&fakeScreen{err: errors.New("denied")}),
	)
	_, err := chain.Capture(context.Background(), Request{})
	if !werrors.Is(err, werrors.ErrCaptureFailed) {
		t.Fatalf("expected CAPTURE_FAILED, got %v", err)
	}
}

func TestCapturer_RejectsUnusableWindow(t *testing.T) {
	c := NewCapturer(NewChain(logging.Discard()), nil, false, logging.Discard())
	_, err := c.CaptureCrop(context.Background(), model.Window{Handle: 1, Title: "x"}, nil)
	if !werrors.Is(err, werrors.ErrWindowNotFound) {
		t.Fatalf("expected WINDOW_NOT_FOUND, got %v", err)
	}
}

func TestCapturer_RegionClampsToMonitor(t *testing.T) {
	d := twoMonitors()
	d.guess = 0
	c := NewCapturer(NewChain(logging.Discard()), d, false, logging.Discard())
	w := model.Window{Handle: 1, Visible: true, Title: "t", Bounds: [4]int{1800, 0, 400, 800}}
	got := c.Region(w, nil)
	if got != image.Rect(1800, 0, 1920, 800) {
		t.Errorf("Region() = %v", got)
	}
}
