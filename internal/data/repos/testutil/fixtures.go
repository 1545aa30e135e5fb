package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/domain/merge"
)

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, referenceID string) *merge.MergeSession {
	tb.Helper()
	s := &merge.MergeSession{
		ID:          uuid.New(),
		ReferenceID: referenceID,
		Status:      merge.SessionStatusProcessing,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedPackage(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, role string) *merge.Package {
	tb.Helper()
	p := &merge.Package{
		ID:          uuid.New(),
		SessionID:   sessionID,
		PackageRole: role,
		Filename:    role + ".zip",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed package: %v", err)
	}
	return p
}

func SeedRegistryObject(tb testing.TB, ctx context.Context, tx *gorm.DB, objectUUID, name, objectType string) *merge.RegistryObject {
	tb.Helper()
	o := &merge.RegistryObject{
		ID:         uuid.New(),
		ObjectUUID: objectUUID,
		Name:       name,
		ObjectType: objectType,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed registry object: %v", err)
	}
	return o
}

func SeedMembership(tb testing.TB, ctx context.Context, tx *gorm.DB, packageID, objectID uuid.UUID) *merge.PackageMembership {
	tb.Helper()
	m := &merge.PackageMembership{
		ID:        uuid.New(),
		PackageID: packageID,
		ObjectID:  objectID,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed membership: %v", err)
	}
	return m
}

func SeedObjectVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, objectID, packageID uuid.UUID, version, content, hash string) *merge.ObjectVersion {
	tb.Helper()
	v := &merge.ObjectVersion{
		ID:                uuid.New(),
		ObjectID:          objectID,
		PackageID:         packageID,
		VersionIdentifier: version,
		SerializedContent: content,
		StructuredFields:  datatypes.JSON([]byte("{}")),
		ContentHash:       hash,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed object version: %v", err)
	}
	return v
}
