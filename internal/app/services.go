package app

import (
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/appian"
	"github.com/ram-020998/nexusmerge/internal/platform/eventbus"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
	"github.com/ram-020998/nexusmerge/internal/services"
)

type Services struct {
	Extractor  services.ExtractorService
	Delta      services.DeltaService
	Classifier services.ClassifierService
	Comparer   services.ComparisonService
	Merge      services.MergeService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, bus eventbus.Bus) Services {
	log.Info("Wiring services...")

	parser := appian.NewRegistry()
	policy := cfg.NormalizationPolicy()

	extractor := services.NewExtractorService(log, parser, policy, r.Objects, r.Packages, r.Memberships, r.Versions)
	delta := services.NewDeltaService(log, r.Memberships, r.Versions, r.Deltas)
	classifier := services.NewClassifierService(log, r.Objects, r.Changes)
	comparer := services.NewComparisonService(log, r.Objects, r.Versions, r.Comparisons)

	mergeSvc := services.NewMergeService(
		log, db, bus,
		r.Sessions, r.Packages, r.Objects, r.Memberships, r.Versions, r.Deltas, r.Changes, r.Comparisons,
		extractor, delta, classifier, comparer,
	)

	return Services{
		Extractor:  extractor,
		Delta:      delta,
		Classifier: classifier,
		Comparer:   comparer,
		Merge:      mergeSvc,
	}
}
