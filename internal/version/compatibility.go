package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// CheckCompatibility checks whether a strategy document written for
// required can run on engine. Returns nil if compatible.
//
// Rules:
//   - "main" on either side (development build) skips the check
//   - An empty requirement is always compatible
//   - A plain version must match the engine's major and minor version;
//     patch versions may differ (0.4.0 runs documents written for 0.4.7)
//   - Anything else is treated as a semver constraint, e.g. ">= 0.3, < 0.5"
func CheckCompatibility(engine, required string) error {
	engine = strings.TrimPrefix(strings.TrimSpace(engine), "v")
	required = strings.TrimSpace(required)

	if required == "" || engine == "main" || required == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engine)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version %q", engine)
	}

	if requiredSemver, err := semver.NewVersion(strings.TrimPrefix(required, "v")); err == nil {
		return matchMinor(engineSemver, requiredSemver)
	}

	constraint, err := semver.NewConstraint(required)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine_version %q", required)
	}

	if ok, reasons := constraint.Validate(engineSemver); !ok {
		msgs := make([]string, len(reasons))
		for i, r := range reasons {
			msgs[i] = r.Error()
		}

		return errors.Newf(errors.ErrCodeVersionMismatch,
			"engine %s does not satisfy %q: %s", engineSemver, required, strings.Join(msgs, "; "))
	}

	return nil
}

func matchMinor(engine, required *semver.Version) error {
	if engine.Major() != required.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"major version mismatch: engine is %d.x.x but strategy requires %d.x.x",
			engine.Major(), required.Major())
	}

	if engine.Minor() != required.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"minor version mismatch: engine is %d.%d.x but strategy requires %d.%d.x",
			engine.Major(), engine.Minor(), required.Major(), required.Minor())
	}

	return nil
}
