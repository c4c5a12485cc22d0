// Package console is the typed side of the conversation. One Console owns
// stdin so the text listener and the image prompt never race for lines.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type Console struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan string
	err   error // set before lines is closed
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan string),
	}
}

func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Prompt prints prompt and blocks for one line or until ctx is done. A line
// typed while nobody is prompting is kept for the next call. A final line
// without a newline is returned before io.EOF is reported.
func (c *Console) Prompt(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.once.Do(func() { go c.readLines() })

	fmt.Fprint(c.out, prompt)

	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", c.err
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readLines owns the reader. Sends are unbuffered so a pending line waits
// in this goroutine rather than being dropped.
func (c *Console) readLines() {
	for {
		line, err := c.in.ReadString('\n')
		if line != "" && (err == nil || err == io.EOF) {
			c.lines <- strings.TrimRight(line, "\r\n")
		}
		if err != nil {
			c.err = err
			close(c.lines)
			return
		}
	}
}
