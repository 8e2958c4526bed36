// Package cleanup implements the Phase 0 and Phase 5 filesystem sweeps
// described in spec §4.8: a pre-run purge of staging/cache scratch space
// and a post-run purge of a single run directory's temp artifacts.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Phase0Report summarizes a pre-run staging/cache purge.
type Phase0Report struct {
	FilesRemoved        int
	DirectoriesCleaned  int
	TotalSizeFreedBytes int64
}

// Phase5Report summarizes a post-run temp-file purge for one run directory.
type Phase5Report struct {
	FilesRemoved        int
	TotalSizeFreedBytes int64
	ValidationPassed    bool // true iff every essential whitelist file still exists
}

// essentialWhitelist names the only files Phase 5 must never remove.
var essentialWhitelist = []string{"Test-Cases.md", "Complete-Analysis.md"}

// tempPatterns are the glob patterns Phase 5 removes, unless whitelisted.
var tempPatterns = []string{
	"*.tmp",
	"*_staging.*",
	"*_intelligence.*",
	"*_phase_*.*",
	"agent_*_*.*",
}

// Service runs the pre-run and post-run cleanup passes. RunPhase0/RunPhase5
// are synchronous, one-shot calls invoked directly by the orchestrator.
// StartBackground/Stop additionally expose a ticker-driven sweep of Phase 0
// for the standalone `cleanup` CLI subcommand.
type Service struct {
	root     string // contains staging/, cache/, runs/
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a cleanup service rooted at root, with interval used
// only by the background sweep mode.
func NewService(root string, interval time.Duration) *Service {
	return &Service{root: root, interval: interval}
}

// RunPhase0 removes all files under <root>/staging/ and <root>/cache/,
// whichever exist. <root>/runs/ is never touched.
func (s *Service) RunPhase0(_ context.Context) (Phase0Report, error) {
	var report Phase0Report

	for _, sub := range []string{"staging", "cache"} {
		dir := filepath.Join(s.root, sub)
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return report, fmt.Errorf("stat %s: %w", dir, err)
		}
		if !info.IsDir() {
			continue
		}

		files, dirs, freed, err := purgeDirContents(dir)
		if err != nil {
			return report, fmt.Errorf("purge %s: %w", dir, err)
		}
		report.FilesRemoved += files
		report.DirectoriesCleaned += dirs
		report.TotalSizeFreedBytes += freed
	}

	slog.Info("Phase 0 cleanup complete",
		"files_removed", report.FilesRemoved,
		"directories_cleaned", report.DirectoriesCleaned,
		"bytes_freed", report.TotalSizeFreedBytes)
	return report, nil
}

// RunPhase5 removes every temp file in runDir that is not in the essential
// whitelist and matches one of tempPatterns, then validates that every
// whitelisted file is still present.
func (s *Service) RunPhase5(_ context.Context, runDir string) (Phase5Report, error) {
	var report Phase5Report

	entries, err := os.ReadDir(runDir)
	if err != nil {
		return report, fmt.Errorf("read run directory %s: %w", runDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if isWhitelisted(name) || !matchesAnyPattern(name, tempPatterns) {
			continue
		}

		if info, err := entry.Info(); err == nil {
			report.TotalSizeFreedBytes += info.Size()
		}
		if err := os.Remove(filepath.Join(runDir, name)); err != nil {
			slog.Warn("Phase 5 cleanup: failed to remove temp file", "file", name, "error", err)
			continue
		}
		report.FilesRemoved++
	}

	report.ValidationPassed = true
	for _, name := range essentialWhitelist {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			report.ValidationPassed = false
			slog.Error("Phase 5 cleanup: essential file missing after cleanup", "file", name)
		}
	}

	slog.Info("Phase 5 cleanup complete",
		"files_removed", report.FilesRemoved,
		"bytes_freed", report.TotalSizeFreedBytes,
		"validation_passed", report.ValidationPassed)
	return report, nil
}

// StartBackground launches a ticker-driven Phase 0 sweep, for the optional
// standalone `cleanup` CLI subcommand that periodically purges stale
// staging/cache directories outside of any single run's lifecycle.
func (s *Service) StartBackground(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.runLoop(ctx)

	slog.Info("Cleanup background sweep started", "root", s.root, "interval", s.interval)
}

// Stop signals the background sweep to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup background sweep stopped")
}

func (s *Service) runLoop(ctx context.Context) {
	defer close(s.done)

	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context) {
	if _, err := s.RunPhase0(ctx); err != nil {
		slog.Error("Background cleanup sweep failed", "error", err)
	}
}

func isWhitelisted(name string) bool {
	for _, w := range essentialWhitelist {
		if w == name {
			return true
		}
	}
	return false
}

func matchesAnyPattern(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// purgeDirContents removes every entry under dir (files and subdirectories)
// without removing dir itself, and reports what was freed.
func purgeDirContents(dir string) (filesRemoved, dirsRemoved int, bytesFreed int64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, 0, err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			size, ferr := dirSize(path)
			if ferr == nil {
				bytesFreed += size
			}
			if rerr := os.RemoveAll(path); rerr != nil {
				return filesRemoved, dirsRemoved, bytesFreed, fmt.Errorf("remove %s: %w", path, rerr)
			}
			dirsRemoved++
			continue
		}

		if info, ferr := entry.Info(); ferr == nil {
			bytesFreed += info.Size()
		}
		if rerr := os.Remove(path); rerr != nil {
			return filesRemoved, dirsRemoved, bytesFreed, fmt.Errorf("remove %s: %w", path, rerr)
		}
		filesRemoved++
	}

	return filesRemoved, dirsRemoved, bytesFreed, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
