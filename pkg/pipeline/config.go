package pipeline

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/canvaslayout/pkg/errors"
)

// LoadConfig overlays a TOML config file onto opts. Keys absent from the
// file keep their current values, so callers start from [DefaultOptions]:
//
//	max_depth = 50
//	formats   = ["svg", "json"]
//	detailed  = true
//
//	[layout]
//	horizontal_spacing = 300
//	handle_orientation = "vertical"
//
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadConfig(path string, opts *Options) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return DecodeConfig(string(data), opts)
}

// DecodeConfig overlays TOML source onto opts.
func DecodeConfig(src string, opts *Options) error {
	md, err := toml.Decode(src, opts)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOptions, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidOptions, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return opts.Layout.Validate()
}
