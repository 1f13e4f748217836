package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// Satisfies checks that engineVersion meets constraint, e.g. "^1.2" or ">= 1.0, < 2".
// An empty constraint always passes. A "main" development build passes any valid constraint.
func Satisfies(engineVersion, constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "invalid engine_version constraint %q", constraint)
	}

	engineVersion = strings.TrimPrefix(engineVersion, "v")
	if engineVersion == "main" {
		return nil
	}

	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "invalid engine version %q", engineVersion)
	}

	if ok, reasons := c.Validate(v); !ok {
		msgs := make([]string, len(reasons))
		for i, r := range reasons {
			msgs[i] = r.Error()
		}

		return errors.Newf(errors.ErrCodeBacktestConfigError, "engine %s does not satisfy %q: %s", v, constraint, strings.Join(msgs, "; "))
	}

	return nil
}
