// Package prompt collects the scan target and port range.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/model"
	"github.com/pkg/errors"
)

// Collector asks for the target and port range on In, echoing prompts to
// Out. A nil In means non-interactive use: Preset and the configured
// defaults are used without prompting.
type Collector struct {
	In       io.Reader
	Out      io.Writer
	Defaults api.Defaults
	Preset   model.ScanRequest
}

func New(in io.Reader, out io.Writer, cfg api.Config, preset model.ScanRequest) *Collector {
	return &Collector{
		In:       in,
		Out:      out,
		Defaults: cfg.Defaults,
		Preset:   preset,
	}
}

// Collect returns a validated request. Blank answers fall back to the
// defaults; an interrupted context aborts a pending read.
func (c *Collector) Collect(ctx context.Context) (model.ScanRequest, error) {
	req := model.ScanRequest{
		Target: strings.TrimSpace(c.Preset.Target),
		Ports:  strings.TrimSpace(c.Preset.Ports),
	}

	if c.In != nil {
		fmt.Fprintln(c.Out, "[*] Configuration")
		fmt.Fprintln(c.Out, strings.Repeat("-", 54))
		reader := bufio.NewReader(c.In)
		var err error
		if req.Target == "" {
			req.Target, err = c.ask(ctx, reader, "Enter Target (IP/Domain/Network): ")
			if err != nil {
				return model.ScanRequest{}, err
			}
		}
		if req.Ports == "" {
			req.Ports, err = c.ask(ctx, reader, "Enter Port Range (e.g., 1-1024, 80,443): ")
			if err != nil {
				return model.ScanRequest{}, err
			}
		}
	}

	req = c.applyDefaults(req)
	if err := Validate(req); err != nil {
		return model.ScanRequest{}, err
	}
	return req, nil
}

func (c *Collector) applyDefaults(req model.ScanRequest) model.ScanRequest {
	if req.Target == "" {
		req.Target = strings.TrimSpace(c.Defaults.Target)
		c.notifyDefault(req.Target)
	}
	if req.Ports == "" {
		req.Ports = strings.TrimSpace(c.Defaults.Ports)
		c.notifyDefault(req.Ports)
	}
	return req
}

func (c *Collector) notifyDefault(value string) {
	if c.Out != nil && value != "" {
		fmt.Fprintf(c.Out, "    using default: %s\n", value)
	}
}

type answer struct {
	line string
	err  error
}

func (c *Collector) ask(ctx context.Context, reader *bufio.Reader, question string) (string, error) {
	fmt.Fprint(c.Out, question)

	answerCh := make(chan answer, 1)
	go func() {
		line, err := reader.ReadString('\n')
		answerCh <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", api.NewError(api.UserInterrupt, ctx.Err(), "")
	case a := <-answerCh:
		// EOF with a partial line still counts as an answer.
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return "", api.NewError(api.ValidationError, errors.Wrap(a.err, "read answer"), "")
		}
		if errors.Is(a.err, io.EOF) {
			fmt.Fprintln(c.Out)
		}
		return strings.TrimSpace(a.line), nil
	}
}

// Validate rejects requests whose target or ports are blank.
func Validate(req model.ScanRequest) error {
	if strings.TrimSpace(req.Target) == "" {
		return api.NewError(api.ValidationError, errors.New("target cannot be empty"), "")
	}
	if strings.TrimSpace(req.Ports) == "" {
		return api.NewError(api.ValidationError, errors.New("port range cannot be empty"), "")
	}
	return nil
}
