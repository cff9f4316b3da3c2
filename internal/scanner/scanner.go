package scanner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/executor"
	"github.com/kosmosec/portreport/internal/model"
	"github.com/kosmosec/portreport/internal/preflight"
	"github.com/kosmosec/portreport/internal/prompt"
	"github.com/kosmosec/portreport/internal/report"
	"github.com/kosmosec/portreport/internal/sns"
)

// Topic is the bus topic stage transitions are published on.
const Topic = "pipeline"

// Env is what a run needs from the process around it.
type Env struct {
	// Stdin answers the prompts. Nil disables prompting.
	Stdin  io.Reader
	Stdout io.Writer
	// Stderr receives the delegate's progress output while it runs.
	Stderr io.Writer
	// Request holds values given on the command line; blank fields are
	// prompted for or defaulted.
	Request model.ScanRequest
	Bus     *sns.SNS
}

type Result struct {
	RunID  string
	Stage  api.Stage
	Report model.Report
}

type run struct {
	id     string
	cfg    api.Config
	env    Env
	stage  api.Stage
	req    model.ScanRequest
	logger zerolog.Logger
}

// Scan drives PREFLIGHT, INPUT, SCAN and REPORT in order. The first failing
// stage moves the run to ABORTED and its error is returned; nothing after
// it runs.
func Scan(ctx context.Context, cfg api.Config, env Env) (res Result, err error) {
	if env.Stdout == nil {
		env.Stdout = io.Discard
	}
	if env.Stderr == nil {
		env.Stderr = io.Discard
	}
	if env.Bus == nil {
		env.Bus = sns.New()
	}
	env.Bus.CreateTopic(Topic)

	r := &run{
		id:  uuid.New().String(),
		cfg: cfg,
		env: env,
	}
	r.logger = log.With().Str("run_id", r.id).Logger()
	res.RunID = r.id

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Interface("panic", p).Msg("pipeline panicked")
			err = r.abort(api.NewError(api.Unexpected, errors.Errorf("%v", p), ""))
			res.Stage = r.stage
		}
	}()

	printBanner(env.Stdout)

	r.enter(api.StagePreflight)
	if err := cfg.Validate(); err != nil {
		return r.fail(res, api.NewError(api.ValidationError, errors.Wrap(err, "invalid configuration"), ""))
	}
	if err := preflight.Check(ctx, cfg, env.Stdout); err != nil {
		return r.fail(res, err)
	}

	r.enter(api.StageInput)
	r.req, err = prompt.New(env.Stdin, env.Stdout, cfg, env.Request).Collect(ctx)
	if err != nil {
		return r.fail(res, err)
	}

	r.enter(api.StageScan)
	if err := executor.New(cfg, env.Stdout, env.Stderr).Invoke(ctx, r.req); err != nil {
		return r.fail(res, err)
	}

	r.enter(api.StageReport)
	rep, err := report.New(cfg, env.Stdout).Assemble(ctx, r.req.Target)
	if err != nil {
		return r.fail(res, err)
	}
	res.Report = rep

	r.enter(api.StageDone)
	r.publish(rep.Path, nil)
	printSummary(env.Stdout, rep.Path)
	return r.result(res), nil
}

func (r *run) result(res Result) Result {
	res.Stage = r.stage
	return res
}

// fail aborts the run and returns the result in its terminal stage.
func (r *run) fail(res Result, err error) (Result, error) {
	err = r.abort(err)
	return r.result(res), err
}

func (r *run) enter(stage api.Stage) {
	r.stage = stage
	r.logger.Debug().Str("stage", string(stage)).Msg("entering stage")
	if stage != api.StageDone {
		r.publish("", nil)
	}
}

func (r *run) publish(reportPath string, err error) {
	r.env.Bus.SendMessage(Topic, model.Event{
		RunID:   r.id,
		Stage:   r.stage,
		At:      time.Now(),
		Request: r.req,
		Report:  reportPath,
		Err:     err,
	})
}

// abort prints err with its hint, moves the run to ABORTED and returns err
// marked as already shown.
func (r *run) abort(err error) error {
	failed := r.stage
	kind := api.KindOf(err)
	out := r.env.Stdout

	r.logger.Error().Str("stage", string(failed)).Str("kind", string(kind)).Err(err).Msg("pipeline aborted")

	if kind == api.UserInterrupt {
		fmt.Fprintln(out, "\n[!] Scan interrupted by user")
	} else {
		fmt.Fprintf(out, "[-] Error: %s\n", err)
		if hint := api.HintOf(err); hint != "" {
			fmt.Fprintf(out, "    hint: %s\n", hint)
		}
		if msg := abortMessage(failed); msg != "" {
			fmt.Fprintf(out, "\n[-] %s\n", msg)
		}
	}

	r.stage = api.StageAborted
	r.publish("", err)
	return api.Reported(err)
}

func abortMessage(stage api.Stage) string {
	switch stage {
	case api.StagePreflight:
		return "Requirements check failed. Please install missing components."
	case api.StageInput:
		return "Invalid scan parameters."
	case api.StageScan:
		return "Scanning failed. Check the errors above."
	case api.StageReport:
		return "Report generation failed."
	}
	return ""
}

func printBanner(out io.Writer) {
	rule := strings.Repeat("=", 54)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "  %s %s - port scan report wrapper\n", api.AppName, api.Version)
	fmt.Fprintln(out, rule)
}

func printSummary(out io.Writer, reportPath string) {
	rule := strings.Repeat("=", 54)
	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "[+] SCAN COMPLETED SUCCESSFULLY")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "\nReport saved as: %s\n", filepath.Base(reportPath))
	location, err := filepath.Abs(reportPath)
	if err != nil {
		location = reportPath
	}
	fmt.Fprintf(out, "Location: %s\n", location)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "   - Review the report for open ports and services")
	fmt.Fprintln(out, "   - Verify expected services are running")
	fmt.Fprintln(out, "   - Check for unexpected open ports")
	fmt.Fprintln(out, "   - Update firewall rules if needed")
	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
}
