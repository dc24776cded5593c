package adapter

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/openaudit/a11yscan/pkg/model"
)

// subprocessAdapter drives PA11Y, AXE, or LIGHTHOUSE as a local subprocess:
// the URL is passed on the command line, JSON is read from stdout, and a
// non-zero exit with stderr is a Failure. The exact command string is an
// implementation detail; the contract is "takes URL, emits JSON, exits 0".
type subprocessAdapter struct {
	kind   model.ScannerKind
	binary func(Config) string
}

func (a *subprocessAdapter) Kind() model.ScannerKind { return a.kind }

func (a *subprocessAdapter) Scan(ctx context.Context, page model.PageRef, cfg Config) model.RawScanOutput {
	if cfg.Mode == model.ModeSimulate {
		return simulateFixture(a.kind, page.URL)
	}

	return WithRetry(ctx, cfg, func(ctx context.Context) model.RawScanOutput {
		return a.attempt(ctx, page, cfg)
	})
}

func (a *subprocessAdapter) attempt(ctx context.Context, page model.PageRef, cfg Config) model.RawScanOutput {
	bin := a.binary(cfg)
	if bin == "" {
		return model.FailureOutput(model.FailureConfiguration, string(a.kind)+": no binary configured")
	}
	if _, err := exec.LookPath(bin); err != nil {
		return model.FailureOutput(model.FailureConfiguration, string(a.kind)+": binary not found: "+bin)
	}

	ctx, cancel := deadline(ctx, cfg)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "--reporter", "json", page.URL)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return model.FailureOutput(model.FailureTimeout, string(a.kind)+": deadline exceeded")
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return model.FailureOutput(model.FailureTransport, string(a.kind)+": "+stderr.String())
		}
		return model.FailureOutput(model.FailureConfiguration, err.Error())
	}

	return model.SuccessOutput(stdout.Bytes())
}
