package app

import (
	"gorm.io/gorm"

	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

type Repos struct {
	Sessions    repos.MergeSessionRepo
	Packages    repos.PackageRepo
	Objects     repos.RegistryObjectRepo
	Memberships repos.PackageMembershipRepo
	Versions    repos.ObjectVersionRepo
	Deltas      repos.DeltaResultRepo
	Changes     repos.ChangeRepo
	Comparisons repos.ComparisonRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Sessions:    repos.NewMergeSessionRepo(db, log),
		Packages:    repos.NewPackageRepo(db, log),
		Objects:     repos.NewRegistryObjectRepo(db, log),
		Memberships: repos.NewPackageMembershipRepo(db, log),
		Versions:    repos.NewObjectVersionRepo(db, log),
		Deltas:      repos.NewDeltaResultRepo(db, log),
		Changes:     repos.NewChangeRepo(db, log),
		Comparisons: repos.NewComparisonRepo(db, log),
	}
}
