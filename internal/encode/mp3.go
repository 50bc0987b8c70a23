package encode

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/patterncast/patterncast/internal/audio"
)

// MP3Compressor encodes s16le PCM to MP3 through an FFmpeg (libmp3lame)
// subprocess. A background goroutine collects stdout into an internal buffer
// that Drain empties, so Write never blocks on the reader side.
type MP3Compressor struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	mu      sync.Mutex
	out     bytes.Buffer
	readErr error

	readerDone chan struct{}
}

// NewMP3Compressor starts an FFmpeg process encoding stereo PCM at the
// broadcast sample rate to MP3 at bitrateKbps.
func NewMP3Compressor(bitrateKbps int) (*MP3Compressor, error) {
	cmd := exec.Command("ffmpeg",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", audio.SampleRate),
		"-ac", fmt.Sprintf("%d", audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	c := &MP3Compressor{
		cmd:        cmd,
		stdin:      stdin,
		readerDone: make(chan struct{}),
	}
	go c.readLoop(stdout)
	return c, nil
}

func (c *MP3Compressor) readLoop(stdout io.Reader) {
	defer close(c.readerDone)
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			c.mu.Lock()
			c.out.Write(buf[:n])
			c.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
				log.Error("mp3 compressor read", "err", err)
			}
			return
		}
	}
}

// Write feeds PCM bytes to the encoder.
func (c *MP3Compressor) Write(pcm []byte) error {
	if _, err := c.stdin.Write(pcm); err != nil {
		return fmt.Errorf("ffmpeg write: %w", err)
	}
	return nil
}

// Drain returns the MP3 frames produced so far.
func (c *MP3Compressor) Drain() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	if c.out.Len() == 0 {
		return nil, nil
	}
	out := make([]byte, c.out.Len())
	copy(out, c.out.Bytes())
	c.out.Reset()
	return out, nil
}

// Flush closes the PCM input, waits for the encoder to emit its buffered
// tail, and returns it. The subprocess is reaped here.
func (c *MP3Compressor) Flush() ([]byte, error) {
	if err := c.stdin.Close(); err != nil {
		return nil, fmt.Errorf("ffmpeg close stdin: %w", err)
	}
	<-c.readerDone
	if err := c.cmd.Wait(); err != nil {
		log.Warn("ffmpeg exit", "err", err)
	}
	return c.Drain()
}
