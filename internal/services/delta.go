package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// DeltaService computes the set difference between two package snapshots of
// one session. Only objects that changed in a detectable way produce a row:
// an identical non-empty version token, or a changed token over identical
// content hashes, emits nothing. Objects without a version token (unknown or
// unversioned exports) are compared by content hash alone.
type DeltaService interface {
	Compare(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, axis string, older, newer *merge.Package) ([]*merge.DeltaResult, error)
}

type deltaService struct {
	log *logger.Logger

	memberships repos.PackageMembershipRepo
	versions    repos.ObjectVersionRepo
	deltas      repos.DeltaResultRepo
}

func NewDeltaService(
	baseLog *logger.Logger,
	memberships repos.PackageMembershipRepo,
	versions repos.ObjectVersionRepo,
	deltas repos.DeltaResultRepo,
) DeltaService {
	return &deltaService{
		log:         baseLog.With("service", "DeltaService"),
		memberships: memberships,
		versions:    versions,
		deltas:      deltas,
	}
}

func (s *deltaService) Compare(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, axis string, older, newer *merge.Package) ([]*merge.DeltaResult, error) {
	if older == nil || newer == nil {
		return nil, fmt.Errorf("delta comparison requires both packages")
	}

	olderIDs, err := s.memberships.ObjectIDsForPackage(ctx, tx, older.ID)
	if err != nil {
		return nil, err
	}
	newerIDs, err := s.memberships.ObjectIDsForPackage(ctx, tx, newer.ID)
	if err != nil {
		return nil, err
	}

	inOlder := map[uuid.UUID]bool{}
	for _, id := range olderIDs {
		inOlder[id] = true
	}
	inNewer := map[uuid.UUID]bool{}
	for _, id := range newerIDs {
		inNewer[id] = true
	}

	var rows []*merge.DeltaResult

	// Additions.
	for _, id := range newerIDs {
		if inOlder[id] {
			continue
		}
		rows = append(rows, &merge.DeltaResult{
			SessionID:      sessionID,
			ObjectID:       id,
			Axis:           axis,
			ChangeCategory: merge.CategoryNew,
			ChangeType:     merge.ChangeTypeAdded,
			VersionChanged: true,
			ContentChanged: true,
		})
	}

	// Removals.
	for _, id := range olderIDs {
		if inNewer[id] {
			continue
		}
		rows = append(rows, &merge.DeltaResult{
			SessionID:      sessionID,
			ObjectID:       id,
			Axis:           axis,
			ChangeCategory: merge.CategoryDeprecated,
			ChangeType:     merge.ChangeTypeRemoved,
			VersionChanged: true,
			ContentChanged: true,
		})
	}

	// Intersection: compare version tokens first, content hashes second.
	olderVersions, err := s.versionIndex(ctx, tx, older.ID)
	if err != nil {
		return nil, err
	}
	newerVersions, err := s.versionIndex(ctx, tx, newer.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range olderIDs {
		if !inNewer[id] {
			continue
		}
		before := olderVersions[id]
		after := newerVersions[id]
		if before == nil || after == nil {
			return nil, fmt.Errorf("object %s is a member of package %s without a version snapshot", id, axis)
		}

		versionChanged := before.VersionIdentifier != after.VersionIdentifier
		if !versionChanged && before.VersionIdentifier != "" {
			// Same non-empty version token: treated as a true no-op, content
			// is not reinspected. An empty token carries no information (the
			// export had none, or the file degraded to the unknown type), so
			// those fall through to the hash comparison.
			continue
		}
		contentChanged := before.ContentHash != after.ContentHash
		if !contentChanged {
			// Version bump with no real diff: not a change at all.
			continue
		}
		rows = append(rows, &merge.DeltaResult{
			SessionID:      sessionID,
			ObjectID:       id,
			Axis:           axis,
			ChangeCategory: merge.CategoryModified,
			ChangeType:     merge.ChangeTypeModified,
			VersionChanged: versionChanged,
			ContentChanged: contentChanged,
		})
	}

	created, err := s.deltas.Create(ctx, tx, rows)
	if err != nil {
		return nil, err
	}
	s.log.Debug("computed delta", "axis", axis, "changed", len(created))
	return created, nil
}

func (s *deltaService) versionIndex(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (map[uuid.UUID]*merge.ObjectVersion, error) {
	versions, err := s.versions.GetByPackage(ctx, tx, packageID)
	if err != nil {
		return nil, err
	}
	idx := make(map[uuid.UUID]*merge.ObjectVersion, len(versions))
	for _, v := range versions {
		idx[v.ObjectID] = v
	}
	return idx, nil
}
