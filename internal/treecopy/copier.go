package treecopy

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/engineci/internal/utils"
)

const (
	skippingPrivateMessage   = "Skipping"
	skippingLocalMessage     = "skipping local artifact"
	skippingUntrackedMessage = "skipping untracked file"
	copyingMessage           = "copying"
	directoryPermissions     = 0o755
)

// Decision is the outcome for one file.
type Decision int

const (
	// DecisionCopied means the file was copied (or would be, in a dry run).
	DecisionCopied Decision = iota
	// DecisionSkippedLocal means a local artifact pattern matched.
	DecisionSkippedLocal
	// DecisionSkippedPrivate means a private platform or private file pattern matched.
	DecisionSkippedPrivate
	// DecisionSkippedUntracked means git confirmed the file is not tracked.
	DecisionSkippedUntracked
)

// Report counts the decisions of one run.
type Report struct {
	Copied           int
	SkippedLocal     int
	SkippedPrivate   int
	SkippedUntracked int
}

func (report *Report) add(decision Decision) {
	switch decision {
	case DecisionCopied:
		report.Copied++
	case DecisionSkippedLocal:
		report.SkippedLocal++
	case DecisionSkippedPrivate:
		report.SkippedPrivate++
	case DecisionSkippedUntracked:
		report.SkippedUntracked++
	}
}

// Copier copies a filtered source tree into a target directory.
// Copies are additive: files already present in the target and absent from the source are left alone.
type Copier struct {
	Patterns PatternSet
	Tracker  Tracker
	Logger   *zap.Logger
	// DryRun decides and reports without writing to the target.
	DryRun bool
}

// NewCopier returns a copier using patterns and tracker.
func NewCopier(patterns PatternSet, tracker Tracker, logger *zap.Logger) *Copier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Copier{Patterns: patterns, Tracker: tracker, Logger: logger}
}

// CopyTree walks sourceDirectory and copies every file that matches no exclusion pattern
// and is tracked by git to the same relative path below targetDirectory.
// The first copy failure or tracking check failure aborts the walk.
func (copier *Copier) CopyTree(ctx context.Context, sourceDirectory, targetDirectory string) (Report, error) {
	var report Report
	sourceRoot := utils.AbsolutePathOrSelf(sourceDirectory)
	targetRoot := utils.AbsolutePathOrSelf(targetDirectory)

	sourceInfo, statError := os.Stat(sourceRoot)
	if statError != nil {
		return report, fmt.Errorf("stat source %s: %w", sourceDirectory, statError)
	}
	if !sourceInfo.IsDir() {
		return report, fmt.Errorf("source %s is not a directory", sourceDirectory)
	}

	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		relativePath, relativeError := utils.RelativeSlashPath(sourceRoot, currentPath)
		if relativeError != nil {
			return relativeError
		}
		if directoryEntry.IsDir() {
			return copier.visitDirectory(currentPath, relativePath, targetRoot)
		}
		regular, typeError := isRegularFile(currentPath, directoryEntry)
		if typeError != nil {
			return typeError
		}
		if !regular {
			return nil
		}
		decision, decideError := copier.decide(ctx, sourceRoot, relativePath)
		if decideError != nil {
			return decideError
		}
		if decision == DecisionCopied && !copier.DryRun {
			if copyError := copyFile(currentPath, filepath.Join(targetRoot, filepath.FromSlash(relativePath))); copyError != nil {
				return copyError
			}
		}
		report.add(decision)
		return nil
	}

	if walkError := filepath.WalkDir(sourceRoot, walkFunction); walkError != nil {
		return report, walkError
	}
	return report, nil
}

// visitDirectory prunes directories whose every descendant would be a local artifact,
// and the target directory when it lives inside the source.
func (copier *Copier) visitDirectory(currentPath, relativePath, targetRoot string) error {
	if relativePath == "." {
		return nil
	}
	if filepath.Clean(currentPath) == targetRoot {
		return filepath.SkipDir
	}
	for _, pattern := range copier.Patterns.LocalArtifacts {
		if strings.Contains(relativePath+"/", pattern) {
			copier.Logger.Debug(skippingLocalMessage, zap.String("path", relativePath+"/"))
			return filepath.SkipDir
		}
	}
	return nil
}

// decide applies the exclusion categories and then the tracking check to one file.
func (copier *Copier) decide(ctx context.Context, sourceRoot, relativePath string) (Decision, error) {
	category, pattern := copier.Patterns.Match(relativePath)
	switch category {
	case CategoryLocalArtifact:
		copier.Logger.Debug(skippingLocalMessage, zap.String("path", relativePath), zap.String("pattern", pattern))
		return DecisionSkippedLocal, nil
	case CategoryPrivatePlatform, CategoryPrivateFile:
		copier.Logger.Info(skippingPrivateMessage, zap.String("path", relativePath), zap.Stringer("category", category), zap.String("pattern", pattern))
		return DecisionSkippedPrivate, nil
	}
	tracked, trackError := copier.Tracker.IsTracked(ctx, sourceRoot, relativePath)
	if trackError != nil {
		return DecisionSkippedUntracked, trackError
	}
	if !tracked {
		copier.Logger.Debug(skippingUntrackedMessage, zap.String("path", relativePath))
		return DecisionSkippedUntracked, nil
	}
	copier.Logger.Debug(copyingMessage, zap.String("path", relativePath))
	return DecisionCopied, nil
}

// isRegularFile reports whether the entry is a regular file, following symbolic links.
func isRegularFile(currentPath string, directoryEntry fs.DirEntry) (bool, error) {
	if directoryEntry.Type().IsRegular() {
		return true, nil
	}
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}
	targetInfo, statError := os.Stat(currentPath)
	if statError != nil {
		return false, fmt.Errorf("stat link %s: %w", currentPath, statError)
	}
	return targetInfo.Mode().IsRegular(), nil
}

// copyFile copies content, permission bits and modification time, creating parent directories.
//
// #nosec G304
func copyFile(sourcePath, targetPath string) error {
	sourceInfo, statError := os.Stat(sourcePath)
	if statError != nil {
		return fmt.Errorf("stat %s: %w", sourcePath, statError)
	}
	if mkdirError := os.MkdirAll(filepath.Dir(targetPath), directoryPermissions); mkdirError != nil {
		return fmt.Errorf("create directory for %s: %w", targetPath, mkdirError)
	}
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf("open %s: %w", sourcePath, openError)
	}
	defer sourceFile.Close()

	if removeError := os.Remove(targetPath); removeError != nil && !os.IsNotExist(removeError) {
		return fmt.Errorf("replace %s: %w", targetPath, removeError)
	}
	targetFile, createError := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, sourceInfo.Mode().Perm())
	if createError != nil {
		return fmt.Errorf("create %s: %w", targetPath, createError)
	}
	_, copyError := io.Copy(targetFile, sourceFile)
	closeError := targetFile.Close()
	if copyError != nil {
		return fmt.Errorf("copy %s to %s: %w", sourcePath, targetPath, copyError)
	}
	if closeError != nil {
		return fmt.Errorf("close %s: %w", targetPath, closeError)
	}
	if chmodError := os.Chmod(targetPath, sourceInfo.Mode().Perm()); chmodError != nil {
		return fmt.Errorf("chmod %s: %w", targetPath, chmodError)
	}
	if chtimesError := os.Chtimes(targetPath, sourceInfo.ModTime(), sourceInfo.ModTime()); chtimesError != nil {
		return fmt.Errorf("set times on %s: %w", targetPath, chtimesError)
	}
	return nil
}
