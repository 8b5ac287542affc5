package automaxprocs

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/sponsornet/settlement-engine/pkg/logger"
)

// Init sets GOMAXPROCS to match the Linux container CPU quota.
func Init() error {
	_, err := maxprocs.Set(maxprocs.Logger(logger.Debug))
	if err != nil {
		return errors.Wrap(err, "can't set maxprocs")
	}
	return nil
}
