package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// FetchStatus keeps one spinner line on a terminal while `tools install`
// downloads jars one after another.
type FetchStatus struct {
	w     io.Writer
	total int

	mu      sync.Mutex
	current string
	n       int
	since   time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFetchStatus starts redrawing the line on w until Stop is called.
func NewFetchStatus(w io.Writer, total int) *FetchStatus {
	fs := &FetchStatus{w: w, total: total, since: time.Now(), stop: make(chan struct{})}
	fs.wg.Add(1)
	go fs.loop()
	return fs
}

// Begin moves the line on to the next jar.
func (fs *FetchStatus) Begin(tool, version string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.n++
	fs.current = tool + " " + version
	fs.since = time.Now()
}

// Stop clears the line. Later calls do nothing.
func (fs *FetchStatus) Stop() {
	fs.stopOnce.Do(func() {
		close(fs.stop)
		fs.wg.Wait()
		fmt.Fprint(fs.w, "\r\033[K")
	})
}

func (fs *FetchStatus) loop() {
	defer fs.wg.Done()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-fs.stop:
			return
		case <-ticker.C:
			fmt.Fprint(fs.w, fs.line(frame))
		}
	}
}

func (fs *FetchStatus) line(frame int) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.current == "" {
		return ""
	}
	spinner := spinnerFrames[frame%len(spinnerFrames)]
	return fmt.Sprintf("\r\033[K%s fetching %s [%d/%d] (%s)", spinner, fs.current, fs.n, fs.total, formatElapsed(time.Since(fs.since)))
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
