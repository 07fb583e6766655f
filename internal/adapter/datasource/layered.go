package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
)

// Layered tries its sources in order and returns the first non-empty result.
type Layered struct {
	sources []repository.ItemSource
	logger  *logrus.Logger
}

// NewLayered builds a layered source; nil entries are ignored.
func NewLayered(logger *logrus.Logger, sources ...repository.ItemSource) *Layered {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Layered{
		sources: lo.Filter(sources, func(s repository.ItemSource, _ int) bool { return s != nil }),
		logger:  logger,
	}
}

func (l *Layered) Name() string {
	return strings.Join(lo.Map(l.sources, func(s repository.ItemSource, _ int) string { return s.Name() }), " > ")
}

func (l *Layered) Load(ctx context.Context) ([]entity.Item, error) {
	var errs []error
	for i, src := range l.sources {
		items, err := src.Load(ctx)
		if err == nil && len(items) == 0 {
			err = entity.ErrNoItems
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			l.logger.WithError(err).WithField("source", src.Name()).Warn("item source failed")
			if ctxErr := ctx.Err(); ctxErr != nil {
				break
			}
			continue
		}
		if i > 0 {
			l.logger.WithField("source", src.Name()).Info("using fallback item source")
		}
		return items, nil
	}
	return nil, errors.Join(append([]error{entity.ErrNoSourceAvailable}, errs...)...)
}
