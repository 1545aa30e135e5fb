package services

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/appian"
	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// ExtractorService turns an unzipped export package into durable rows:
// registry identities, package memberships and version snapshots. Parsing and
// storing are split so the orchestrator can parse the three packages in
// parallel and keep every write inside one transaction.
type ExtractorService interface {
	// ParsePackage walks dirPath and parses every object file. Per-file
	// failures degrade to Unknown records; an unreadable or empty package is
	// an ExtractionFailure.
	ParsePackage(ctx context.Context, role, dirPath string) ([]*appian.ObjectRecord, error)

	// StoreParsed persists one parsed package for a session and returns the
	// Package row with its final object count.
	StoreParsed(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, role, filename string, records []*appian.ObjectRecord) (*merge.Package, error)
}

type extractorService struct {
	log    *logger.Logger
	parser *appian.Registry
	policy NormalizationPolicy

	objects     repos.RegistryObjectRepo
	packages    repos.PackageRepo
	memberships repos.PackageMembershipRepo
	versions    repos.ObjectVersionRepo
}

func NewExtractorService(
	baseLog *logger.Logger,
	parser *appian.Registry,
	policy NormalizationPolicy,
	objects repos.RegistryObjectRepo,
	packages repos.PackageRepo,
	memberships repos.PackageMembershipRepo,
	versions repos.ObjectVersionRepo,
) ExtractorService {
	return &extractorService{
		log:         baseLog.With("service", "ExtractorService"),
		parser:      parser,
		policy:      policy,
		objects:     objects,
		packages:    packages,
		memberships: memberships,
		versions:    versions,
	}
}

func (s *extractorService) ParsePackage(ctx context.Context, role, dirPath string) ([]*appian.ObjectRecord, error) {
	if _, err := os.Stat(dirPath); err != nil {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "package contents unreadable", Err: err}
	}

	var records []*appian.ObjectRecord
	walkErr := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		rel, relErr := filepath.Rel(dirPath, path)
		if relErr != nil {
			rel = path
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			s.log.Warn("object file unreadable, storing as unknown", "role", role, "file", rel, "error", readErr)
			records = append(records, appian.UnknownRecord(rel, nil))
			return nil
		}
		rec, parseErr := s.parser.ParseFile(rel, data)
		if parseErr != nil {
			s.log.Warn("object file failed to parse, storing as unknown", "role", role, "file", rel, "error", parseErr)
			records = append(records, appian.UnknownRecord(rel, data))
			return nil
		}
		records = append(records, rec)
		return nil
	})
	if walkErr != nil {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "failed walking package contents", Err: walkErr}
	}
	if len(records) == 0 {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "package contains no object files"}
	}
	return records, nil
}

func (s *extractorService) StoreParsed(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, role, filename string, records []*appian.ObjectRecord) (*merge.Package, error) {
	pkg, err := s.packages.Create(ctx, tx, &merge.Package{
		SessionID:   sessionID,
		PackageRole: role,
		Filename:    filename,
	})
	if err != nil {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "failed creating package row", Err: err}
	}

	// A package exported twice can mention the same object twice; last one
	// wins within the package, the registry dedupes across packages.
	byUUID := map[string]*appian.ObjectRecord{}
	var order []string
	for _, rec := range records {
		if rec == nil || rec.UUID == "" {
			continue
		}
		if _, seen := byUUID[rec.UUID]; !seen {
			order = append(order, rec.UUID)
		}
		byUUID[rec.UUID] = rec
	}

	candidates := make([]*merge.RegistryObject, 0, len(order))
	for _, u := range order {
		rec := byUUID[u]
		candidates = append(candidates, &merge.RegistryObject{
			ObjectUUID:  rec.UUID,
			Name:        rec.Name,
			ObjectType:  rec.ObjectType.String(),
			Description: rec.Description,
		})
	}
	registered, err := s.objects.FindOrCreateBatch(ctx, tx, candidates)
	if err != nil {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "failed registering objects", Err: err}
	}

	mrows := make([]*merge.PackageMembership, 0, len(order))
	vrows := make([]*merge.ObjectVersion, 0, len(order))
	for _, u := range order {
		rec := byUUID[u]
		obj := registered[u]
		if obj == nil {
			continue
		}
		if obj.Description == "" && rec.Description != "" {
			if err := s.objects.UnifyDescription(ctx, tx, obj.ID, rec.Description); err != nil {
				return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "failed unifying description", Err: err}
			}
		}

		structured, err := json.Marshal(rec.StructuredFields)
		if err != nil {
			structured = []byte("{}")
		}
		mrows = append(mrows, &merge.PackageMembership{PackageID: pkg.ID, ObjectID: obj.ID})
		vrows = append(vrows, &merge.ObjectVersion{
			ObjectID:          obj.ID,
			PackageID:         pkg.ID,
			VersionIdentifier: rec.VersionIdentifier,
			SerializedContent: rec.SerializedContent,
			StructuredFields:  datatypes.JSON(structured),
			RawSource:         rec.RawSource,
			ContentHash:       s.policy.ContentHash(rec.SerializedContent, rec.StructuredFields),
		})
	}

	if err := s.memberships.CreateIgnoreDuplicates(ctx, tx, mrows); err != nil {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "failed recording memberships", Err: err}
	}
	if _, err := s.versions.Create(ctx, tx, vrows); err != nil {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "failed storing version snapshots", Err: err}
	}
	if err := s.packages.UpdateObjectCount(ctx, tx, pkg.ID, len(vrows)); err != nil {
		return nil, &apperr.ExtractionFailure{PackageRole: role, Reason: "failed updating object count", Err: err}
	}
	pkg.ObjectCount = len(vrows)

	s.log.Debug("stored package", "role", role, "objects", len(vrows))
	return pkg, nil
}
