// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package siggen drives the signal generator providing the stimulus of
// regression captures, through SCPI commands over TCP.
package siggen // import "github.com/go-lpc/acqreg/siggen"

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-lpc/acqreg/acq"
)

// DefaultPort is the SCPI raw socket port.
const DefaultPort = 5025

// Client is a SCPI client.
type Client struct {
	conn net.Conn
	rbuf *bufio.Reader

	timeout time.Duration
}

// Option configures a client.
type Option func(*Client)

// WithTimeout sets the deadline of every exchange with the generator.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to the signal generator at addr.
// The SCPI default port is used when addr holds no port.
func Dial(addr string, opts ...Option) (*Client, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("siggen: could not dial %q: %w", addr, err)
	}
	return NewClient(conn, opts...), nil
}

// NewClient returns a SCPI client talking over conn.
func NewClient(conn net.Conn, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		rbuf:    bufio.NewReader(conn),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the connection to the generator.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) deadline() {
	if c.timeout <= 0 {
		return
	}
	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
}

// Send sends a SCPI command.
func (c *Client) Send(cmd string) error {
	c.deadline()
	_, err := c.conn.Write([]byte(strings.TrimSpace(cmd) + "\n"))
	if err != nil {
		return fmt.Errorf("siggen: could not send %q: %w", cmd, err)
	}
	return nil
}

// Query sends a SCPI query and returns the reply.
func (c *Client) Query(cmd string) (string, error) {
	err := c.Send(cmd)
	if err != nil {
		return "", err
	}
	reply, err := c.rbuf.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("siggen: could not read reply to %q: %w", cmd, err)
	}
	return strings.TrimSpace(reply), nil
}

// Configure configures the generator for a capture mode.
func (c *Client) Configure(mode acq.Mode, trg acq.Spec, freq float64) error {
	cmds, err := Commands(mode, trg, freq)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		err = c.Send(cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

// Trigger sends a bus trigger.
func (c *Client) Trigger() error {
	return c.Send("TRIG")
}

// Fire sends the bus triggers a capture needs, waiting delay before each
// of them.
func (c *Client) Fire(ctx context.Context, mode acq.Mode, trg acq.Spec, delay time.Duration) error {
	for i := 0; i < Triggers(mode, trg); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		err := c.Trigger()
		if err != nil {
			return err
		}
	}
	return nil
}

// Triggers returns the number of bus triggers a capture needs.
// rtm captures are retriggered by the free-running stimulus. Externally
// triggered pre_post captures need a second burst for the event.
func Triggers(mode acq.Mode, trg acq.Spec) int {
	switch {
	case mode == acq.RTM:
		return 0
	case mode == acq.PrePost && !trg.Internal():
		return 2
	}
	return 1
}

// Commands returns the SCPI commands configuring the generator for a
// capture mode.
func Commands(mode acq.Mode, trg acq.Spec, freq float64) ([]string, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("siggen: invalid capture mode %v", mode)
	}

	cmds := []string{
		"VOLT 1",
		"OUTP:SYNC ON",
		"FREQ " + strconv.FormatFloat(freq, 'f', -1, 64),
		"FUNC:SHAP SIN",
	}

	switch mode {
	case acq.Post:
		switch {
		case trg.Internal():
			cmds = append(cmds, "BURS:STAT OFF", "TRIG:SOUR IMM")
		default:
			cmds = append(cmds, "BURS:STAT ON", "BURS:NCYC 1", "TRIG:SOUR BUS")
		}
		if !trg.Rising() {
			// falling edge: the capture starts after the first cycle.
			cmds = append(cmds, "BURS:STAT ON", "BURS:NCYC 3")
		}

	case acq.PrePost:
		cmds = append(cmds, "BURS:STAT ON", "BURS:NCYC 1", "TRIG:SOUR BUS")

	case acq.RTM:
		cmds = append(cmds, "TRIG:SOUR IMM", "BURS:STAT OFF")

	case acq.RGM:
		cmds = append(cmds,
			"TRIG:SOUR IMM", "BURS:STAT OFF",
			"BURS:STAT ON", "BURS:NCYC 5", "TRIG:SOUR BUS",
		)

	case acq.RTMGPG:
		cmds = append(cmds, "TRIG:SOUR IMM", "BURS:STAT OFF", "FUNC:SHAP RAMP", "FREQ 1")
	}

	return cmds, nil
}

// Frequency returns the stimulus frequency for a sample clock and a
// number of samples per stimulus cycle.
func Frequency(clk float64, divisor int) (float64, error) {
	if divisor <= 0 {
		return 0, fmt.Errorf("siggen: invalid clock divisor %d", divisor)
	}
	freq := clk / float64(divisor)
	if int64(freq) == 0 {
		return 0, fmt.Errorf("siggen: zero stimulus frequency (clk=%v Hz, divisor=%d)", clk, divisor)
	}
	return freq, nil
}
