// Package validation runs the configuration checks behind the check command.
package validation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"mindmap_backend/core"

	"github.com/fatih/color"
)

// StepStatus is the outcome of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ValidationStep is one executed check.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// SuiteResult summarizes a suite run.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// ValidationSuite checks that the service can start: .env, provider,
// temp directory, free space, history database and, unless quick, the
// completion backend.
type ValidationSuite struct {
	cfg          *core.Config
	output       io.Writer
	envPath      string
	httpClient   *http.Client
	timeout      time.Duration
	showProgress bool
	failFast     bool
}

// NewValidationSuite creates a suite for cfg printing to stdout.
func NewValidationSuite(cfg *core.Config) *ValidationSuite {
	return &ValidationSuite{
		cfg:          cfg,
		output:       os.Stdout,
		envPath:      ".env",
		timeout:      10 * time.Second,
		showProgress: true,
	}
}

// WithOutput sets where progress is printed.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithEnvPath sets the .env file to check.
func (s *ValidationSuite) WithEnvPath(path string) *ValidationSuite {
	s.envPath = path
	return s
}

// WithTimeout bounds the backend request.
func (s *ValidationSuite) WithTimeout(timeout time.Duration) *ValidationSuite {
	s.timeout = timeout
	return s
}

// WithHTTPClient replaces the client used for the backend check.
func (s *ValidationSuite) WithHTTPClient(client *http.Client) *ValidationSuite {
	s.httpClient = client
	return s
}

// WithShowProgress enables or disables printing.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// WithFailFast stops at the first failed step.
func (s *ValidationSuite) WithFailFast(failFast bool) *ValidationSuite {
	s.failFast = failFast
	return s
}

type check struct {
	name string
	run  func(ctx context.Context) CheckResult
}

func (s *ValidationSuite) localChecks() []check {
	return []check{
		{"Environment File", func(context.Context) CheckResult { return CheckEnvFile(s.envPath) }},
		{"Provider Configuration", func(context.Context) CheckResult { return CheckProvider(s.cfg) }},
		{"Temp Directory", func(context.Context) CheckResult { return CheckWritableDir("TEMP_DIR", s.cfg.TempDir) }},
		{"Free Space", func(context.Context) CheckResult { return CheckFreeSpace(s.cfg.TempDir, 2*s.cfg.MaxFileSize) }},
		{"History Database", func(context.Context) CheckResult { return CheckDatabasePath(s.cfg) }},
	}
}

// Validate runs every check. The backend is only contacted when the local
// checks passed.
func (s *ValidationSuite) Validate(ctx context.Context) SuiteResult {
	start := time.Now()
	s.printHeader("Mind Map Backend Configuration Check")

	steps, stopped := s.runChecks(ctx, s.localChecks())
	if !stopped {
		backend := check{"Completion Backend", func(ctx context.Context) CheckResult {
			client := s.httpClient
			if client == nil {
				client = core.GetHTTPClient(s.cfg, s.timeout)
			}
			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return CheckBackend(ctx, s.cfg, client)
		}}
		if hasFailure(steps) {
			step := ValidationStep{Name: backend.name, Status: StepSkipped, Message: "skipped due to configuration errors"}
			s.printStep(step)
			steps = append(steps, step)
		} else {
			more, _ := s.runChecks(ctx, []check{backend})
			steps = append(steps, more...)
		}
	}

	result := buildResult(steps, start)
	s.printSummary(result)
	return result
}

// ValidateQuick runs only the local checks.
func (s *ValidationSuite) ValidateQuick(ctx context.Context) SuiteResult {
	start := time.Now()
	s.printHeader("Quick Configuration Check")
	steps, _ := s.runChecks(ctx, s.localChecks())
	result := buildResult(steps, start)
	s.printSummary(result)
	return result
}

// runChecks reports whether fail-fast stopped the run.
func (s *ValidationSuite) runChecks(ctx context.Context, checks []check) ([]ValidationStep, bool) {
	steps := make([]ValidationStep, 0, len(checks))
	for _, c := range checks {
		if s.showProgress {
			fmt.Fprintf(s.output, "  ◌ %s...", c.name)
		}
		begin := time.Now()
		result := c.run(ctx)
		step := ValidationStep{
			Name:    c.name,
			Status:  result.Status,
			Message: result.Message,
			Error:   result.Error,
			Latency: time.Since(begin),
		}
		s.printStep(step)
		steps = append(steps, step)

		if s.failFast && step.Status == StepFailed {
			return steps, true
		}
	}
	return steps, false
}

func hasFailure(steps []ValidationStep) bool {
	for _, step := range steps {
		if step.Status == StepFailed {
			return true
		}
	}
	return false
}

func buildResult(steps []ValidationStep, start time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(start),
		Success:    true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}
	return result
}

func (s *ValidationSuite) printHeader(title string) {
	if !s.showProgress {
		return
	}
	fmt.Fprintln(s.output)
	color.New(color.FgCyan, color.Bold).Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

func (s *ValidationSuite) printStep(step ValidationStep) {
	if !s.showProgress {
		return
	}

	var icon string
	var clr *color.Color
	switch step.Status {
	case StepPassed:
		icon, clr = "✓", color.New(color.FgGreen)
	case StepFailed:
		icon, clr = "✗", color.New(color.FgRed)
	case StepWarning:
		icon, clr = "!", color.New(color.FgYellow)
	case StepSkipped:
		icon, clr = "○", color.New(color.FgHiBlack)
	default:
		icon, clr = "?", color.New(color.FgWhite)
	}

	fmt.Fprint(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		color.New(color.FgRed).Fprintf(s.output, "    └─ %s\n", step.Error)
	}
}

func (s *ValidationSuite) printSummary(result SuiteResult) {
	if !s.showProgress {
		return
	}
	fmt.Fprintln(s.output)
	if result.Success {
		c := color.New(color.FgGreen, color.Bold)
		c.Fprint(s.output, "━━━ Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		c.Fprintln(s.output, " ━━━")
	} else {
		c := color.New(color.FgRed, color.Bold)
		c.Fprint(s.output, "━━━ Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		c.Fprintln(s.output, " ━━━")
	}
	fmt.Fprintln(s.output)
}

// FirstError returns the error of the first failed step.
func (r SuiteResult) FirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Summary returns a one-line description of the run.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	if r.Success {
		sb.WriteString("Validation Passed: ")
	} else {
		sb.WriteString("Validation Failed: ")
	}
	fmt.Fprintf(&sb, "%d/%d checks passed", r.PassedSteps, r.TotalSteps)
	if r.FailedSteps > 0 {
		fmt.Fprintf(&sb, ", %d failed", r.FailedSteps)
	}
	if r.Warnings > 0 {
		fmt.Fprintf(&sb, ", %d warnings", r.Warnings)
	}
	fmt.Fprintf(&sb, " (took %v)", r.Duration.Round(time.Millisecond))
	return sb.String()
}
