package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/appian"
	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
	"github.com/ram-020998/nexusmerge/internal/platform/eventbus"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// PackageInput is one extracted application export handed to the
// orchestrator: its role in the three-way comparison, the original upload
// filename, and the directory the archive was unpacked into.
type PackageInput struct {
	Role     string
	Filename string
	Dir      string
}

// WorkingSetEntry is the denormalized review row served to clients.
type WorkingSetEntry struct {
	ChangeID           uuid.UUID `json:"change_id"`
	ObjectUUID         string    `json:"object_uuid"`
	Name               string    `json:"name"`
	ObjectType         string    `json:"object_type"`
	Classification     string    `json:"classification"`
	VendorChangeType   string    `json:"vendor_change_type"`
	CustomerChangeType string    `json:"customer_change_type,omitempty"`
	DisplayOrder       int       `json:"display_order"`
	ReviewStatus       string    `json:"review_status"`
	ReviewNotes        string    `json:"review_notes,omitempty"`
}

// ChangeDetail carries one change with its typed comparison payload.
type ChangeDetail struct {
	Change         *merge.Change         `json:"change"`
	Object         *merge.RegistryObject `json:"object"`
	ComparisonKind string                `json:"comparison_kind,omitempty"`
	Comparison     interface{}           `json:"comparison,omitempty"`
}

// SessionDetail is a session with its package inventory.
type SessionDetail struct {
	Session  *merge.MergeSession `json:"session"`
	Packages []*merge.Package    `json:"packages"`
}

type MergeService interface {
	// CreateMergeSession runs the whole pipeline for one upload triple. The
	// returned session is READY on success and ERROR on failure; the error is
	// also returned so callers can surface the cause.
	CreateMergeSession(ctx context.Context, inputs []PackageInput) (*merge.MergeSession, error)

	GetSession(ctx context.Context, referenceID string) (*SessionDetail, error)
	ListSessions(ctx context.Context, limit int) ([]*merge.MergeSession, error)

	GetWorkingSet(ctx context.Context, referenceID, classification string) ([]*WorkingSetEntry, *repos.ReviewProgress, error)
	GetChangeDetail(ctx context.Context, referenceID string, changeID uuid.UUID) (*ChangeDetail, error)
	ReviewChange(ctx context.Context, referenceID string, changeID uuid.UUID, status, notes string) error

	DeleteSession(ctx context.Context, referenceID string) error
}

type mergeService struct {
	log *logger.Logger
	db  *gorm.DB
	bus eventbus.Bus

	sessions    repos.MergeSessionRepo
	packages    repos.PackageRepo
	objects     repos.RegistryObjectRepo
	memberships repos.PackageMembershipRepo
	versions    repos.ObjectVersionRepo
	deltas      repos.DeltaResultRepo
	changes     repos.ChangeRepo
	comparisons repos.ComparisonRepo

	extractor  ExtractorService
	delta      DeltaService
	classifier ClassifierService
	comparer   ComparisonService
}

func NewMergeService(
	baseLog *logger.Logger,
	db *gorm.DB,
	bus eventbus.Bus,
	sessions repos.MergeSessionRepo,
	packages repos.PackageRepo,
	objects repos.RegistryObjectRepo,
	memberships repos.PackageMembershipRepo,
	versions repos.ObjectVersionRepo,
	deltas repos.DeltaResultRepo,
	changes repos.ChangeRepo,
	comparisons repos.ComparisonRepo,
	extractor ExtractorService,
	delta DeltaService,
	classifier ClassifierService,
	comparer ComparisonService,
) MergeService {
	return &mergeService{
		log:         baseLog.With("service", "MergeService"),
		db:          db,
		bus:         bus,
		sessions:    sessions,
		packages:    packages,
		objects:     objects,
		memberships: memberships,
		versions:    versions,
		deltas:      deltas,
		changes:     changes,
		comparisons: comparisons,
		extractor:   extractor,
		delta:       delta,
		classifier:  classifier,
		comparer:    comparer,
	}
}

func (s *mergeService) CreateMergeSession(ctx context.Context, inputs []PackageInput) (*merge.MergeSession, error) {
	byRole, err := indexInputs(inputs)
	if err != nil {
		return nil, err
	}

	// The session row lives outside the pipeline transaction so an ERROR
	// status survives the rollback.
	session, err := s.createSessionRow(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("merge session started", "reference_id", session.ReferenceID)

	parsed, err := s.parseAll(ctx, byRole)
	if err == nil {
		err = s.runPipeline(ctx, session, byRole, parsed)
	}
	if err != nil {
		s.log.Error("merge session failed", "reference_id", session.ReferenceID, "error", err)
		if markErr := s.sessions.MarkError(ctx, nil, session.ID, err.Error()); markErr != nil {
			s.log.Error("could not mark session ERROR", "reference_id", session.ReferenceID, "error", markErr)
		}
		s.publish(ctx, session.ReferenceID, merge.SessionStatusError, 0, err.Error())
		failed, getErr := s.sessions.GetByID(ctx, nil, session.ID)
		if getErr != nil || failed == nil {
			return session, err
		}
		return failed, err
	}

	ready, err := s.sessions.GetByID(ctx, nil, session.ID)
	if err != nil || ready == nil {
		return session, err
	}
	s.publish(ctx, ready.ReferenceID, ready.Status, ready.TotalChanges, "")
	s.log.Info("merge session ready", "reference_id", ready.ReferenceID, "total_changes", ready.TotalChanges)
	return ready, nil
}

// parseAll runs the filesystem-only parse phase for the three packages in
// parallel. No database state is touched here.
func (s *mergeService) parseAll(ctx context.Context, byRole map[string]PackageInput) (map[string][]*appian.ObjectRecord, error) {
	out := make(map[string][]*appian.ObjectRecord, len(byRole))
	results := make([][]*appian.ObjectRecord, len(sessionRoles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range sessionRoles {
		i, role := i, role
		in := byRole[role]
		g.Go(func() error {
			records, err := s.extractor.ParsePackage(gctx, role, in.Dir)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, role := range sessionRoles {
		out[role] = results[i]
	}
	return out, nil
}

// runPipeline executes every database write of the session in a single
// transaction: a failure at any stage rolls all of it back.
func (s *mergeService) runPipeline(ctx context.Context, session *merge.MergeSession, byRole map[string]PackageInput, parsed map[string][]*appian.ObjectRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pkgs := map[string]*merge.Package{}
		for _, role := range sessionRoles {
			in := byRole[role]
			pkg, err := s.extractor.StoreParsed(ctx, tx, session.ID, role, in.Filename, parsed[role])
			if err != nil {
				return err
			}
			pkgs[role] = pkg
		}

		vendorDelta, err := s.delta.Compare(ctx, tx, session.ID, merge.AxisVendor, pkgs[merge.RoleBase], pkgs[merge.RoleNewVendor])
		if err != nil {
			return err
		}
		customerDelta, err := s.delta.Compare(ctx, tx, session.ID, merge.AxisCustomer, pkgs[merge.RoleBase], pkgs[merge.RoleCustomized])
		if err != nil {
			return err
		}

		customerIDs, err := s.memberships.ObjectIDsForPackage(ctx, tx, pkgs[merge.RoleCustomized].ID)
		if err != nil {
			return err
		}
		changes, err := s.classifier.BuildWorkingSet(ctx, tx, session.ID, vendorDelta, customerDelta, customerIDs)
		if err != nil {
			return err
		}

		if err := s.comparer.PersistComparisons(ctx, tx, session.ID, changes, pkgs[merge.RoleBase], pkgs[merge.RoleNewVendor]); err != nil {
			return err
		}

		return s.sessions.MarkReady(ctx, tx, session.ID, len(changes))
	})
}

func (s *mergeService) GetSession(ctx context.Context, referenceID string) (*SessionDetail, error) {
	session, err := s.sessionByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	pkgs, err := s.packages.GetBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: session, Packages: pkgs}, nil
}

func (s *mergeService) ListSessions(ctx context.Context, limit int) ([]*merge.MergeSession, error) {
	return s.sessions.List(ctx, nil, limit)
}

func (s *mergeService) GetWorkingSet(ctx context.Context, referenceID, classification string) ([]*WorkingSetEntry, *repos.ReviewProgress, error) {
	session, err := s.sessionByReference(ctx, referenceID)
	if err != nil {
		return nil, nil, err
	}
	changes, err := s.changes.GetBySession(ctx, nil, session.ID, classification)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.ObjectID)
	}
	objects, err := s.objects.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := map[uuid.UUID]*merge.RegistryObject{}
	for _, o := range objects {
		byID[o.ID] = o
	}

	entries := make([]*WorkingSetEntry, 0, len(changes))
	for _, c := range changes {
		obj := byID[c.ObjectID]
		if obj == nil {
			return nil, nil, fmt.Errorf("change %s references unknown registry object %s", c.ID, c.ObjectID)
		}
		entries = append(entries, &WorkingSetEntry{
			ChangeID:           c.ID,
			ObjectUUID:         obj.ObjectUUID,
			Name:               obj.Name,
			ObjectType:         obj.ObjectType,
			Classification:     c.Classification,
			VendorChangeType:   c.VendorChangeType,
			CustomerChangeType: c.CustomerChangeType,
			DisplayOrder:       c.DisplayOrder,
			ReviewStatus:       c.ReviewStatus,
			ReviewNotes:        c.ReviewNotes,
		})
	}

	progress, err := s.changes.ProgressBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return entries, progress, nil
}

func (s *mergeService) GetChangeDetail(ctx context.Context, referenceID string, changeID uuid.UUID) (*ChangeDetail, error) {
	change, err := s.changeInSession(ctx, referenceID, changeID)
	if err != nil {
		return nil, err
	}
	obj, err := s.objects.GetByID(ctx, nil, change.ObjectID)
	if err != nil {
		return nil, err
	}

	detail := &ChangeDetail{Change: change, Object: obj}
	payload, kind, err := s.comparisons.GetPayload(ctx, nil, change.SessionID, change.ObjectID)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		detail.Comparison = payload
		detail.ComparisonKind = kind
	}
	return detail, nil
}

func (s *mergeService) ReviewChange(ctx context.Context, referenceID string, changeID uuid.UUID, status, notes string) error {
	if _, err := s.changeInSession(ctx, referenceID, changeID); err != nil {
		return err
	}
	return s.changes.UpdateReview(ctx, nil, changeID, status, notes)
}

func (s *mergeService) DeleteSession(ctx context.Context, referenceID string) error {
	session, err := s.sessionByReference(ctx, referenceID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pkgs, err := s.packages.GetBySession(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		pkgIDs := make([]uuid.UUID, 0, len(pkgs))
		for _, p := range pkgs {
			pkgIDs = append(pkgIDs, p.ID)
		}

		if err := s.comparisons.DeleteBySession(ctx, tx, session.ID); err != nil {
			return err
		}
		if err := s.changes.DeleteBySession(ctx, tx, session.ID); err != nil {
			return err
		}
		if err := s.deltas.DeleteBySession(ctx, tx, session.ID); err != nil {
			return err
		}
		if err := s.versions.DeleteByPackageIDs(ctx, tx, pkgIDs); err != nil {
			return err
		}
		if err := s.memberships.DeleteByPackageIDs(ctx, tx, pkgIDs); err != nil {
			return err
		}
		if err := s.packages.DeleteBySession(ctx, tx, session.ID); err != nil {
			return err
		}
		if err := s.sessions.FullDelete(ctx, tx, session.ID); err != nil {
			return err
		}

		// Registry objects are shared across sessions; only those no longer
		// referenced by any package go away.
		removed, err := s.objects.DeleteOrphans(ctx, tx)
		if err != nil {
			return err
		}
		s.log.Info("session deleted", "reference_id", referenceID, "orphan_objects_removed", removed)
		return nil
	})
}

func (s *mergeService) changeInSession(ctx context.Context, referenceID string, changeID uuid.UUID) (*merge.Change, error) {
	session, err := s.sessionByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	change, err := s.changes.GetByID(ctx, nil, changeID)
	if err != nil {
		return nil, err
	}
	if change == nil || change.SessionID != session.ID {
		return nil, fmt.Errorf("%w: change %s", apperr.ErrNotFound, changeID)
	}
	return change, nil
}

func (s *mergeService) sessionByReference(ctx context.Context, referenceID string) (*merge.MergeSession, error) {
	session, err := s.sessions.GetByReferenceID(ctx, nil, referenceID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: merge session %q", apperr.ErrNotFound, referenceID)
	}
	return session, nil
}

func (s *mergeService) createSessionRow(ctx context.Context) (*merge.MergeSession, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		session, err := s.sessions.Create(ctx, nil, &merge.MergeSession{
			ReferenceID: newReferenceID(),
			Status:      merge.SessionStatusProcessing,
		})
		if err == nil {
			return session, nil
		}
		if !apperr.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("could not allocate session reference: %w", lastErr)
}

func (s *mergeService) publish(ctx context.Context, referenceID, status string, totalChanges int, detail string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSessionEvent(ctx, eventbus.SessionEvent{
		ReferenceID:  referenceID,
		Status:       status,
		TotalChanges: totalChanges,
		Detail:       detail,
	}); err != nil {
		s.log.Warn("session event publish failed", "reference_id", referenceID, "error", err)
	}
}

var sessionRoles = []string{merge.RoleBase, merge.RoleCustomized, merge.RoleNewVendor}

func indexInputs(inputs []PackageInput) (map[string]PackageInput, error) {
	byRole := map[string]PackageInput{}
	for _, in := range inputs {
		switch in.Role {
		case merge.RoleBase, merge.RoleCustomized, merge.RoleNewVendor:
		default:
			return nil, fmt.Errorf("%w: unknown package role %q", apperr.ErrInvalidArgument, in.Role)
		}
		if _, dup := byRole[in.Role]; dup {
			return nil, fmt.Errorf("%w: duplicate package role %q", apperr.ErrInvalidArgument, in.Role)
		}
		byRole[in.Role] = in
	}
	for _, role := range sessionRoles {
		if _, ok := byRole[role]; !ok {
			return nil, fmt.Errorf("%w: missing package role %q", apperr.ErrInvalidArgument, role)
		}
	}
	return byRole, nil
}

// newReferenceID builds a human-friendly session handle, e.g.
// MRG-20260830-3fa1b2.
func newReferenceID() string {
	id := uuid.New()
	return fmt.Sprintf("MRG-%s-%s", time.Now().UTC().Format("20060102"), hex.EncodeToString(id[:3]))
}
