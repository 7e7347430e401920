package validation

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mindmap_backend/core"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status  StepStatus
	Message string
	Error   error
}

func passed(format string, args ...any) CheckResult {
	return CheckResult{Status: StepPassed, Message: fmt.Sprintf(format, args...)}
}

func failed(message string, err error) CheckResult {
	return CheckResult{Status: StepFailed, Message: message, Error: err}
}

// CheckEnvFile parses the .env file at path. A missing file is only a
// warning because every setting can come from the process environment.
func CheckEnvFile(path string) CheckResult {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Status:  StepWarning,
				Message: "not found, using process environment",
				Error:   core.ErrEnvFileMissing(path),
			}
		}
		return failed("cannot parse", fmt.Errorf("parse %s: %w", path, err))
	}
	return passed("%s (%d variables)", path, len(values))
}

// CheckProvider validates the provider selection and its credentials.
func CheckProvider(cfg *core.Config) CheckResult {
	if err := cfg.Validate(); err != nil {
		return failed("invalid configuration", err)
	}
	return passed("%s, model %s", cfg.AIProvider, cfg.Model())
}

// CheckWritableDir creates dir if needed and writes a probe file into it.
func CheckWritableDir(varName, dir string) CheckResult {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return failed("cannot create", core.ErrDirectoryNotWritable(varName, dir, err.Error()))
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return failed("cannot write", core.ErrDirectoryNotWritable(varName, dir, err.Error()))
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return passed("%s is writable", dir)
}

// CheckFreeSpace warns when dir has less than required bytes available.
func CheckFreeSpace(dir string, required int64) CheckResult {
	free, err := FreeSpace(dir)
	if err != nil {
		return CheckResult{Status: StepWarning, Message: "could not determine free space", Error: err}
	}
	if free < required {
		return CheckResult{
			Status:  StepWarning,
			Message: fmt.Sprintf("%s free, %s recommended", humanize.IBytes(uint64(free)), humanize.IBytes(uint64(required))),
		}
	}
	return passed("%s free", humanize.IBytes(uint64(free)))
}

// CheckDatabasePath verifies the run-history database directory is usable.
func CheckDatabasePath(cfg *core.Config) CheckResult {
	if !cfg.RecordHistory {
		return CheckResult{Status: StepSkipped, Message: "run history disabled"}
	}
	result := CheckWritableDir("DATABASE_PATH", filepath.Dir(cfg.DatabasePath))
	if result.Status == StepPassed {
		result.Message = cfg.DatabasePath
	}
	return result
}

// CheckBackend lists the models of the completion endpoint. Any HTTP reply
// proves reachability; 401 and 403 mean the key was rejected.
func CheckBackend(ctx context.Context, cfg *core.Config, client *http.Client) CheckResult {
	baseURL := cfg.BaseURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/models", nil)
	if err != nil {
		return failed("invalid endpoint", core.ErrBackendUnreachable(baseURL, err.Error()))
	}
	if key := cfg.APIKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start).Round(time.Millisecond)
	if err != nil {
		return failed("unreachable", core.ErrBackendUnreachable(baseURL, err.Error()))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return failed(fmt.Sprintf("key rejected (status: %d)", resp.StatusCode), core.ErrMissingAuth(cfg.AIProvider))
	}
	return passed("%s reachable (status: %d, latency: %v)", baseURL, resp.StatusCode, latency)
}
