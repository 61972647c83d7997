package prismatenant

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ApplyFile reads the schema file named in the injector's config,
// patches it, and writes the result back in place,
// keeping the file's permission bits.
// Nothing is written when dryRun is true or when the patch changes nothing.
// There is no backup:
// callers that want one should copy the file first.
func (inj *Injector) ApplyFile(dryRun bool) (Transformed, error) {
	path := inj.cfg.SchemaPath

	info, err := os.Stat(path)
	if err != nil {
		return Transformed{}, errors.Wrap(err, "reading schema")
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Transformed{}, errors.Wrap(err, "reading schema")
	}

	result := inj.Inject(string(data))
	if dryRun || !result.Changed() {
		inj.logger.Info("schema not written",
			zap.String("path", path),
			zap.Bool("dry_run", dryRun),
			zap.Bool("changed", result.Changed()))
		return result, nil
	}

	if err := ioutil.WriteFile(path, []byte(result.Schema), info.Mode().Perm()); err != nil {
		return result, errors.Wrap(err, "writing schema")
	}
	inj.logger.Info("schema written", zap.String("path", path), zap.Int("bytes", len(result.Schema)))
	return result, nil
}
