package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/im7mortal/kmutex"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/models"
	"github.com/lyzr/dbpatcher/common/cache"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/logstream"
	common "github.com/lyzr/dbpatcher/common/models"
	"github.com/lyzr/dbpatcher/common/patchfile"
	"github.com/lyzr/dbpatcher/common/telemetry"
	"github.com/lyzr/dbpatcher/common/tools"
)

const reportKeyPrefix = "report:"

// PatchService assembles, builds, checks and installs patches. Operations on
// the same patch directory never run concurrently.
type PatchService struct {
	sessions    *SessionService
	invoker     *tools.Invoker
	hub         *logstream.Hub
	reports     cache.Cache
	reportTTL   time.Duration
	stagingRoot string
	locks       *kmutex.Kmutex
	telemetry   *telemetry.Telemetry
	log         *logger.Logger

	now func() time.Time
}

// NewPatchService creates a new patch service. Check reports are kept in
// reports for reportTTL.
func NewPatchService(
	sessions *SessionService,
	invoker *tools.Invoker,
	hub *logstream.Hub,
	reports cache.Cache,
	reportTTL time.Duration,
	stagingRoot string,
	tel *telemetry.Telemetry,
	log *logger.Logger,
) *PatchService {
	return &PatchService{
		sessions:    sessions,
		invoker:     invoker,
		hub:         hub,
		reports:     reports,
		reportTTL:   reportTTL,
		stagingRoot: stagingRoot,
		locks:       kmutex.New(),
		telemetry:   tel,
		log:         log,
		now:         time.Now,
	}
}

// AddItems validates the requested item and appends it to the draft. A script
// request may name several comma-separated files; each is judged on its own.
func (s *PatchService) AddItems(ctx context.Context, req *models.AddItemsRequest) (*models.AddItemsResult, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown object type %q", ErrInvalidRequest, req.Type)
	}

	result := &models.AddItemsResult{
		Draft:    append([]models.DraftItem{}, req.Draft...),
		Added:    []models.DraftItem{},
		Rejected: []models.Rejection{},
	}

	if req.Type == common.TypeScript {
		s.addScripts(result, req.Name)
		return result, nil
	}

	cat, err := s.sessions.Catalog()
	if err != nil {
		return nil, err
	}

	item := models.DraftItem{
		Type:   req.Type,
		Schema: req.Schema,
		Name:   strings.ReplaceAll(req.Name, " ", ""),
	}

	switch {
	case item.Name == "":
		result.Reject(item, models.ReasonEmptyName)
	case models.ContainsItem(result.Draft, item):
		result.Reject(item, models.ReasonDuplicate)
	case !cat.Exists(ctx, item.Type, item.Schema, item.Name):
		result.Reject(item, models.ReasonNotFound)
	default:
		result.Accept(item)
	}

	return result, nil
}

func (s *PatchService) addScripts(result *models.AddItemsResult, names string) {
	for _, path := range strings.Split(names, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		item := models.DraftItem{Type: common.TypeScript, Name: path}

		if models.ContainsItem(result.Draft, item) {
			result.Reject(item, models.ReasonDuplicate)
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			result.Reject(item, models.ReasonNotFound)
			continue
		}
		if !strings.EqualFold(filepath.Ext(path), ".sql") {
			result.Reject(item, models.ReasonNotSQL)
			continue
		}
		result.Accept(item)
	}
}

// Build creates a fresh patch directory under root, writes the patch list
// into it and runs the builder. The patch list file is removed afterwards
// whatever the outcome. A non-nil result is returned once the directory
// exists, also when the builder fails.
func (s *PatchService) Build(ctx context.Context, req *models.BuildRequest) (*models.BuildResult, error) {
	defer s.telemetry.RecordDuration("build", time.Now())

	conn, err := s.sessions.ToolConnection()
	if err != nil {
		return nil, err
	}

	list, err := toPatchList(req.Items)
	if err != nil {
		return nil, err
	}

	root := req.Root
	if root == "" {
		root = s.stagingRoot
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: patch root %s", ErrNotFound, root)
	}

	dir, err := patchfile.MakePatchDir(root, conn.Database, s.now())
	if err != nil {
		return nil, err
	}

	s.locks.Lock(dir)
	defer s.locks.Unlock(dir)

	result := &models.BuildResult{
		OperationID: uuid.New(),
		PatchDir:    dir,
		Warnings:    OrderWarnings(req.Items),
	}
	log := s.log.WithOperation(result.OperationID.String(), "build")

	listPath, err := patchfile.WritePatchList(dir, list)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := patchfile.RemovePatchList(dir); err != nil {
			log.Warn("removing patch list failed", "dir", dir, "error", err)
		}
	}()

	log.Info("building patch", "dir", dir, "items", list.Count(), "warnings", len(result.Warnings))

	out := s.output(result.OperationID, "build", log)
	defer out.Close()

	if err := s.invoker.WithOutput(out).Build(ctx, conn, dir, listPath); err != nil {
		log.Warn("build failed", "dir", dir, "error", err)
		return result, err
	}

	log.Info("patch built", "dir", dir)
	return result, nil
}

// Open reads the object and dependency lists of an existing patch
func (s *PatchService) Open(ctx context.Context, dir string) (*models.OpenResult, error) {
	dir, err := resolvePatchDir(dir)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(dir)
	defer s.locks.Unlock(dir)

	objects, err := patchfile.ReadObjectList(dir)
	if err != nil {
		return nil, notFoundOr(err)
	}
	deps, err := patchfile.ReadDependencyList(dir)
	if err != nil {
		return nil, notFoundOr(err)
	}

	report := s.cachedReport(ctx, dir)
	if report == nil || len(report.Dependencies) != deps.Count() {
		report = common.NewPendingReport(deps)
	}

	s.log.Info("patch opened", "dir", dir, "objects", objects.Count(), "dependencies", deps.Count())

	return &models.OpenResult{
		PatchDir:     dir,
		Objects:      objects,
		Dependencies: deps,
		Report:       report,
	}, nil
}

// Check writes the dependency list to the patch and asks the installer which
// dependencies are present in the connected database. The report is
// remembered for Install.
func (s *PatchService) Check(ctx context.Context, req *models.CheckRequest) (*models.CheckResult, error) {
	defer s.telemetry.RecordDuration("check", time.Now())

	conn, err := s.sessions.ToolConnection()
	if err != nil {
		return nil, err
	}

	dir, err := resolvePatchDir(req.Dir)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(dir)
	defer s.locks.Unlock(dir)

	deps := req.Dependencies
	if deps == nil {
		if deps, err = patchfile.ReadDependencyList(dir); err != nil {
			return nil, notFoundOr(err)
		}
	}

	result := &models.CheckResult{OperationID: uuid.New(), PatchDir: dir}
	log := s.log.WithOperation(result.OperationID.String(), "check")

	s.forgetReport(ctx, dir)

	if _, err := patchfile.WriteDependencyList(dir, deps); err != nil {
		return result, err
	}

	out := s.output(result.OperationID, "check", log)
	defer out.Close()

	report, err := s.invoker.WithOutput(out).CheckDependencies(ctx, conn, dir, deps)
	if err != nil {
		log.Warn("dependency check failed", "dir", dir, "error", err)
		return result, err
	}

	result.Report = report
	s.storeReport(ctx, dir, report)

	log.Info("dependencies checked", "dir", dir,
		"dependencies", len(report.Dependencies),
		"all_satisfied", report.AllSatisfied)

	return result, nil
}

// Install applies the patch. When the patch has dependencies that were not
// all verified by a previous Check, req.Force must be set.
func (s *PatchService) Install(ctx context.Context, req *models.InstallRequest) (*models.InstallResult, error) {
	defer s.telemetry.RecordDuration("install", time.Now())

	conn, err := s.sessions.ToolConnection()
	if err != nil {
		return nil, err
	}

	dir, err := resolvePatchDir(req.Dir)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(dir)
	defer s.locks.Unlock(dir)

	deps, err := patchfile.ReadDependencyList(dir)
	if err != nil {
		return nil, notFoundOr(err)
	}

	result := &models.InstallResult{OperationID: uuid.New(), PatchDir: dir}

	if deps.Count() > 0 {
		report := s.cachedReport(ctx, dir)
		if report != nil && len(report.Dependencies) != deps.Count() {
			// The dependency list changed since it was checked
			report = nil
		}
		if report == nil || !report.AllSatisfied {
			if !req.Force {
				return nil, ErrUnsafeInstall
			}
			result.Forced = true
			s.telemetry.RecordEvent("unsafe_install", map[string]any{"dir": dir, "verified": report != nil})
		}
	}

	log := s.log.WithOperation(result.OperationID.String(), "install")
	log.Info("installing patch", "dir", dir, "forced", result.Forced)

	out := s.output(result.OperationID, "install", log)
	defer out.Close()

	if err := s.invoker.WithOutput(out).Install(ctx, conn, dir); err != nil {
		log.Warn("install failed", "dir", dir, "error", err)
		return result, err
	}

	log.Info("patch installed", "dir", dir)
	return result, nil
}

// TemplatesPath returns the templates file handed to the builder
func (s *PatchService) TemplatesPath() string {
	return s.invoker.TemplatesPath()
}

// SetTemplatesPath changes the templates file for subsequent builds
func (s *PatchService) SetTemplatesPath(path string) {
	s.invoker.SetTemplatesPath(path)
	s.log.Info("templates file changed", "path", path)
}

// output streams tool output to WebSocket subscribers and the debug log
func (s *PatchService) output(id uuid.UUID, op string, log *logger.Logger) *operationOutput {
	stream := s.hub.Writer(id.String(), op)
	return &operationOutput{
		Writer: io.MultiWriter(stream, log.Writer("tool output")),
		stream: stream,
	}
}

type operationOutput struct {
	io.Writer
	stream *logstream.Writer
}

func (o *operationOutput) Close() error {
	return o.stream.Close()
}

func (s *PatchService) cachedReport(ctx context.Context, dir string) *common.CheckReport {
	data, ok, err := s.reports.Get(ctx, reportKeyPrefix+dir)
	if err != nil || !ok {
		return nil
	}

	var report common.CheckReport
	if err := json.Unmarshal(data, &report); err != nil {
		s.log.Warn("discarding unreadable check report", "dir", dir, "error", err)
		return nil
	}
	return &report
}

func (s *PatchService) storeReport(ctx context.Context, dir string, report *common.CheckReport) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.reports.Set(ctx, reportKeyPrefix+dir, data, s.reportTTL); err != nil {
		s.log.Warn("storing check report failed", "dir", dir, "error", err)
	}
}

func (s *PatchService) forgetReport(ctx context.Context, dir string) {
	if err := s.reports.Delete(ctx, reportKeyPrefix+dir); err != nil {
		s.log.Warn("dropping check report failed", "dir", dir, "error", err)
	}
}

// toPatchList converts draft items into a patch list
func toPatchList(items []models.DraftItem) (*common.PatchList, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: patch has no items", ErrInvalidRequest)
	}

	list := common.NewPatchList()
	for _, item := range items {
		e, ok := item.Element()
		if !ok {
			return nil, fmt.Errorf("%w: cannot use %s", ErrInvalidRequest, item)
		}
		list.Append(e)
	}
	return list, nil
}

// resolvePatchDir returns the absolute path of an existing patch directory
func resolvePatchDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: patch directory is required", ErrInvalidRequest)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: patch directory %s", ErrNotFound, abs)
	}
	return abs, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
